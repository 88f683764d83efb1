package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/store"
)

var (
	statusTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	statusWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the queued assignments and their progress",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, cleanup, err := newController()
	if err != nil {
		return err
	}
	defer cleanup()

	guid, err := c.Store.GUID()
	if err != nil {
		return err
	}
	if guid == "" {
		fmt.Println(statusWarnStyle.Render("Not registered. Run \"primenet register\" first."))
	} else {
		user, _, _ := c.Store.Get(store.KeyUserName)
		if user == "" {
			user = c.Config.Username
		}
		fmt.Println(statusTitleStyle.Render(fmt.Sprintf("Registered as %s (GUID %s)", user, guid)))
	}

	statuses := c.Status()
	if len(statuses) == 0 {
		fmt.Println("No assignments queued.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tEXPONENT\tSTAGE\tDONE\tTIME LEFT\tFINISH\tPRIME CHANCE")
	for _, st := range statuses {
		a := st.Assignment
		timeLeft, finish := "unknown", ""
		if st.TimeLeft != nil {
			timeLeft = st.TimeLeft.Round(time.Minute).String()
			finish = time.Now().Add(*st.TimeLeft).Format("2006-01-02 15:04")
		}
		chance := ""
		if st.ProbPrime > 0 {
			chance = fmt.Sprintf("1 in %.0f", 1/st.ProbPrime)
		}
		fmt.Fprintf(w, "%s\tM%d\t%s\t%.2f%%\t%s\t%s\t%s\n",
			a.Kind, a.N, st.Stage, st.Percent, timeLeft, finish, chance)
	}
	return w.Flush()
}
