// Package session drives the agent's protocol state machine: registration,
// program-option negotiation, assignment acquisition, progress reporting
// and result submission, with bounded retry and re-registration on the
// recoverable error codes.
package session

import (
	"crypto/md5"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/config"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/primenet"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/progress"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/queue"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/store"
)

// maxAttempts bounds every request-issuing operation: transport failures
// and the recoverable error codes are retried this many times in total,
// then the failure is surfaced to the cycle loop.
const maxAttempts = 5

// ErrNotRegistered is returned by operations that require a registered
// instance before registration has happened.
var ErrNotRegistered = errors.New("instance is not registered with PrimeNet")

// Controller owns the per-machine session state and orchestrates the
// protocol operations. It is driven by a single goroutine.
type Controller struct {
	Workdir  string
	Config   *config.Config
	Store    *store.Store
	Client   *primenet.Client
	Queue    *queue.Manager
	Notifier Notifier
}

// New wires a controller for the given working directory.
func New(workdir string, cfg *config.Config, st *store.Store, client *primenet.Client) *Controller {
	return &Controller{
		Workdir:  workdir,
		Config:   cfg,
		Store:    st,
		Client:   client,
		Queue:    queue.New(cfg.WorkfilePath(workdir)),
		Notifier: &FileNotifier{Path: cfg.WorkfilePath(workdir) + ".prime"},
	}
}

// Family maps the configured program onto the progress estimator family.
func (c *Controller) Family() progress.Family {
	switch c.Config.Program {
	case config.ProgramGpuOwl:
		return progress.FamilyGpuOwl
	case config.ProgramCUDALucas:
		return progress.FamilyCUDALucas
	}
	return progress.FamilyMlucas
}

// supportedWorkTypes returns the ga work type codes the configured program
// can run. CUDALucas only does LL; it cannot take P-1 factoring work.
func (c *Controller) supportedWorkTypes() map[int]bool {
	supported := map[int]bool{
		primenet.WorkTypeFirstLL: true,
		primenet.WorkTypeDblChk:  true,
		primenet.WorkTypePRP:     true,
	}
	if c.Config.Program != config.ProgramCUDALucas {
		supported[primenet.WorkTypePFactor] = true
	}
	return supported
}

// retry runs one request-issuing operation with the bounded retry policy.
// fn receives the current GUID on each attempt: an "unregistered CPU"
// error replaces the GUID via a fresh computer update, a "stale CPU info"
// or "CPU configuration mismatch" error re-sends the update under the
// existing GUID, and a transport failure or busy server is simply
// retried. Any other error is surfaced immediately.
func (c *Controller) retry(op string, fn func(guid string) (primenet.Response, error)) (primenet.Response, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		guid, err := c.Store.GUID()
		if err != nil {
			return nil, err
		}
		if guid == "" {
			return nil, ErrNotRegistered
		}
		r, err := fn(guid)
		if err == nil {
			return r, nil
		}
		lastErr = err

		// The recovery below sends only the uc update, never the nested
		// program-options exchange: re-entering an operation that itself
		// retries would restart the attempt budget.
		switch {
		case errors.Is(err, primenet.ErrNoResponse):
			log.Printf("ERROR: no response during %s (attempt %d/%d): %v", op, attempt, maxAttempts, err)
		case primenet.ServerErrorCode(err) == primenet.ErrorUnregisteredCPU:
			log.Printf("UNREGISTERED CPU ERROR: pick a new GUID and register again")
			if _, rerr := c.updateComputer(true); rerr != nil {
				return nil, fmt.Errorf("%s: re-registration failed: %w", op, rerr)
			}
		case primenet.ServerErrorCode(err) == primenet.ErrorStaleCPUInfo,
			primenet.ServerErrorCode(err) == primenet.ErrorCPUConfigurationMismatch:
			log.Printf("STALE CPU INFO ERROR: re-send computer update")
			if _, rerr := c.updateComputer(false); rerr != nil {
				return nil, fmt.Errorf("%s: re-registration failed: %w", op, rerr)
			}
		case primenet.ServerErrorCode(err) == primenet.ErrorServerBusy:
			log.Printf("Server busy during %s (attempt %d/%d)", op, attempt, maxAttempts)
		default:
			return r, err
		}
	}
	return nil, fmt.Errorf("%s: giving up after %d attempts: %w", op, maxAttempts, lastErr)
}

// Register sends the "update computer" transaction and then exchanges
// program options. With fresh set, a new GUID is generated first (the
// server demands this after an unregistered-CPU error). Registration
// failure is fatal for the run: the node cannot proceed without being
// known to the server. On success the registration digest is persisted,
// so NeedsRegistration stays false until the config changes.
func (c *Controller) Register(fresh bool) error {
	firstTime, err := c.updateComputer(fresh)
	if err != nil {
		return err
	}
	if err := c.ProgramOptions(firstTime); err != nil {
		return err
	}
	return c.Store.Set(store.KeyRegistrationDigest, c.registrationDigest())
}

// updateComputer sends the uc transaction, persisting the GUID and the
// server-echoed identity fields. It deliberately does not exchange
// program options: retry's recovery path calls it mid-operation, and the
// po exchange retries on its own budget.
func (c *Controller) updateComputer(fresh bool) (firstTime bool, err error) {
	if c.Config.Username == "" {
		return false, errors.New("a username is required to register the instance")
	}
	guid, err := c.Store.GUID()
	if err != nil {
		return false, err
	}
	firstTime = guid == ""
	if fresh || guid == "" {
		guid = strings.ReplaceAll(uuid.New().String(), "-", "")
	}

	p := primenet.NewParams(primenet.TxUpdateComputer, guid)
	p.Set("hg", c.hardwareHash())
	p.Set("wg", "") // only filled on Windows by MPrime
	p.Set("a", c.applicationString())
	p.Set("c", truncate(c.Config.CPUModel, 64))
	p.Set("f", truncate(c.Config.Features, 64))
	p.Set("L1", c.Config.L1KiB)
	p.Set("L2", c.Config.L2KiB)
	p.Set("np", c.Config.Cores)
	p.Set("hp", c.Config.ThreadsPerCore)
	p.Set("m", c.Config.MemoryMiB)
	p.Set("s", c.Config.FrequencyMHz)
	p.Set("h", 24)
	p.Set("r", 0)
	p.Set("u", c.Config.Username)
	if c.Config.Hostname != "" {
		p.Set("cn", truncate(c.Config.Hostname, 20))
	}

	log.Printf("Updating computer information on the server")
	r, err := c.Client.Do(guid, p)
	if err != nil {
		return false, fmt.Errorf("registering with PrimeNet: %w", err)
	}

	if err := c.Store.Set(store.KeyGUID, guid); err != nil {
		return false, err
	}
	for key, field := range map[string]string{
		store.KeyUsername: "u",
		store.KeyUserName: "un",
		store.KeyHostname: "cn",
	} {
		if v, ok := r[field]; ok {
			if err := c.Store.Set(key, v); err != nil {
				return false, err
			}
		}
	}

	log.Printf("GUID %s registered for user %s on %s", guid, c.Config.Username, c.Config.Hostname)
	log.Printf("You can see the result at https://www.mersenne.org/editcpu/?g=%s", guid)
	return firstTime, nil
}

// ProgramOptions exchanges program options with the server. The
// first-time variant pushes the worker count, days of work and memory
// split; later exchanges fetch the server-held values. Server echoes are
// persisted so the next cycle sees them.
func (c *Controller) ProgramOptions(firstTime bool) error {
	r, err := c.retry("program options", func(guid string) (primenet.Response, error) {
		p := primenet.NewParams(primenet.TxProgramOptions, guid)
		p.Set("c", c.Config.CPUNum)
		if firstTime {
			p.Set("w", c.Config.WorkType)
		} else {
			p.Set("w", "")
		}
		p.Set("nw", c.Config.Workers)
		if firstTime {
			p.Set("DaysOfWork", int(c.Config.DaysOfWork+0.5))
		} else {
			p.Set("DaysOfWork", "")
		}
		p.Set("DayMemory", int(0.9*float64(c.Config.MemoryMiB)))
		p.Set("NightMemory", int(0.9*float64(c.Config.MemoryMiB)))
		log.Printf("Exchanging program options with server")
		return c.Client.Do(guid, p)
	})
	if err != nil {
		return fmt.Errorf("setting program options: %w", err)
	}
	if w, ok := r["w"]; ok {
		if err := c.Store.Set(store.KeyWorkType, w); err != nil {
			return err
		}
	}
	if d, ok := r["DaysOfWork"]; ok {
		if err := c.Store.Set(store.KeyDaysOfWork, d); err != nil {
			return err
		}
	}
	return c.Store.SetBool(store.KeyFirstTime, false)
}

// NeedsRegistration reports whether a registration must happen before the
// cycle loop can run: the node has never registered, or the
// registration-relevant config fields changed since the last successful
// registration and the server holds stale values.
func (c *Controller) NeedsRegistration() (bool, error) {
	guid, err := c.Store.GUID()
	if err != nil {
		return false, err
	}
	if guid == "" {
		return true, nil
	}
	digest, _, err := c.Store.Get(store.KeyRegistrationDigest)
	if err != nil {
		return false, err
	}
	return digest != c.registrationDigest(), nil
}

// hardwareHash returns the machine fingerprint: the MD5 of the CPU model
// string and a machine-unique token, recomputed from the current config
// so model changes reach the server on the next update.
func (c *Controller) hardwareHash() string {
	sum := md5.Sum([]byte(c.Config.CPUModel + machineToken()))
	return fmt.Sprintf("%x", sum)
}

// registrationDigest fingerprints every config field the uc and po
// transactions send. A mismatch with the stored value means the server
// holds stale hardware or option data.
func (c *Controller) registrationDigest() string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%s|%s|%s|%s|%d|%d|%d|%d|%d|%d|%d|%d|%.1f|%s",
		c.Config.Username,
		c.Config.Hostname,
		c.Config.CPUModel,
		c.Config.Features,
		c.applicationString(),
		c.Config.L1KiB,
		c.Config.L2KiB,
		c.Config.Cores,
		c.Config.ThreadsPerCore,
		c.Config.MemoryMiB,
		c.Config.FrequencyMHz,
		c.Config.WorkType,
		c.Config.Workers,
		c.Config.DaysOfWork,
		machineToken(),
	)))
	return fmt.Sprintf("%x", sum)
}

// machineToken returns a stable machine-unique string: the first hardware
// address of a non-loopback interface, falling back to the hostname.
func machineToken() string {
	ifaces, err := net.Interfaces()
	if err == nil {
		for _, iface := range ifaces {
			if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
				continue
			}
			return iface.HardwareAddr.String()
		}
	}
	hostname, _ := os.Hostname()
	return hostname
}

// applicationString identifies the platform and worker program when
// registering, e.g. "Linux64,Mlucas,v20".
func (c *Controller) applicationString() string {
	platform := strings.ToUpper(runtime.GOOS[:1]) + runtime.GOOS[1:]
	if strings.HasSuffix(runtime.GOARCH, "64") {
		platform += "64"
	}
	switch c.Config.Program {
	case config.ProgramGpuOwl:
		return platform + ",GpuOwl,v7.2"
	case config.ProgramCUDALucas:
		return platform + ",CUDALucas,v2.06"
	}
	return platform + ",Mlucas,v20"
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
