package session

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/primenet"
)

// Notifier receives out-of-band announcements for discovered primes.
type Notifier interface {
	AnnouncePrime(exponent int, line string)
}

// FileNotifier announces a prime by dropping a marker file next to the
// work queue. An existing marker is left alone, so repeated submission
// passes announce each discovery once.
type FileNotifier struct {
	Path string
}

func (n *FileNotifier) AnnouncePrime(exponent int, line string) {
	if _, err := os.Stat(n.Path); err == nil {
		return
	}
	msg := fmt.Sprintf("New Mersenne Prime!!!! M%d is prime!\n%s\n", exponent, line)
	if err := os.WriteFile(n.Path, []byte(msg), 0644); err != nil {
		log.Printf("ERROR writing prime announcement: %v", err)
	}
	log.Printf("%s", msg)
}

// reportableLine selects result lines produced by a known worker program;
// everything else in the results file (timings, banners) is left alone.
var reportableLine = regexp.MustCompile(`Program: E|Mlucas|CUDALucas v|gpuowl`)

// cudaLucasResult parses the CUDALucas free-text result form, e.g.
// M( 57885161 )C, 0x71af7c76d9d9dcd5, offset = 12345, n = 3072K, CUDALucas v2.06, AID: ...
var cudaLucasResult = regexp.MustCompile(`M\( (\d{7,}) \)(P|C, (0x[0-9a-f]{16})), offset = (\d+), n = (\d{3,})K, (CUDALucas v[^\s,]+)(?:, AID: ([0-9A-F]{32}))?`)

// Result is one parsed result line ready for submission.
type Result struct {
	Line     string
	AID      string
	Exponent int
	Type     int // AR result code

	res64       string
	shiftCount  string
	errorCode   string
	residueType int

	k            float64
	b, c         int
	prpBase      int
	gerbicz      bool
	proofPower   int
	proofHash    string
	knownFactors []string

	b1, b2  string
	factors []string
}

// IsPrime reports whether the result announces a (probable) prime.
func (r *Result) IsPrime() bool {
	return r.Type == primenet.ARLLPrime || r.Type == primenet.ARPRPPrime
}

// ParseResult parses one reportable result line. Mlucas and gpuowl emit
// JSON; CUDALucas emits the free-text M(...) form.
func ParseResult(line string) (*Result, error) {
	if m := cudaLucasResult.FindStringSubmatch(line); m != nil {
		return parseCUDALucasResult(line, m)
	}
	return parseJSONResult(line)
}

func parseCUDALucasResult(line string, m []string) (*Result, error) {
	exponent, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("parse result exponent: %w", err)
	}
	r := &Result{
		Line:       line,
		AID:        m[7],
		Exponent:   exponent,
		Type:       primenet.ARLLResult,
		shiftCount: m[4],
		k:          1, b: 2, c: -1,
	}
	if m[2] == "P" {
		r.Type = primenet.ARLLPrime
	} else {
		r.res64 = strings.TrimPrefix(m[3], "0x")
	}
	return r, nil
}

func parseJSONResult(line string) (*Result, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return nil, fmt.Errorf("parse result line: %w", err)
	}
	r := &Result{
		Line:        line,
		AID:         jsonString(fields, "aid"),
		Exponent:    jsonInt(fields, "exponent"),
		res64:       jsonString(fields, "res64"),
		shiftCount:  jsonString(fields, "shift-count"),
		errorCode:   jsonString(fields, "error-code"),
		residueType: jsonInt(fields, "residue-type"),
		k:           1, b: 2, c: -1,
	}
	status := jsonString(fields, "status")
	worktype := jsonString(fields, "worktype")
	switch {
	case worktype == "LL":
		r.Type = primenet.ARLLResult
		if status == "P" {
			r.Type = primenet.ARLLPrime
		}
	case strings.HasPrefix(worktype, "PRP"):
		r.Type = primenet.ARPRPResult
		if status == "P" {
			r.Type = primenet.ARPRPPrime
		}
		if base := strings.TrimPrefix(worktype, "PRP-"); base != worktype {
			r.prpBase, _ = strconv.Atoi(base)
		}
	case worktype == "P-1" || worktype == "PM1":
		r.Type = primenet.ARP1NoFactor
		if status == "F" {
			r.Type = primenet.ARP1Factor
		}
		r.b1 = jsonString(fields, "b1")
		r.b2 = jsonString(fields, "b2")
	case worktype == "Cert":
		r.Type = primenet.ARCert
	default:
		return nil, fmt.Errorf("unknown worktype %q in result", worktype)
	}

	if errs, ok := fields["errors"].(map[string]any); ok {
		if _, ok := errs["gerbicz"]; ok {
			r.gerbicz = true
		}
	}
	if proof, ok := fields["proof"].(map[string]any); ok {
		r.proofPower = jsonInt(proof, "power")
		r.proofHash = jsonString(proof, "md5")
	}
	for _, f := range jsonStrings(fields, "known-factors") {
		r.knownFactors = append(r.knownFactors, f)
	}
	for _, f := range jsonStrings(fields, "factors") {
		r.factors = append(r.factors, f)
	}
	return r, nil
}

func jsonString(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func jsonInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func jsonStrings(m map[string]any, key string) []string {
	arr, ok := m[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// SubmitResults reports every not-yet-sent result line to the server,
// appending each accepted line to the sent ledger immediately so a crash
// mid-pass never causes a resubmission. It returns the number of results
// accepted this pass.
func (c *Controller) SubmitResults() int {
	lines, err := c.unsentResults()
	if err != nil {
		log.Printf("ERROR reading results: %v", err)
		return 0
	}
	if len(lines) == 0 {
		return 0
	}
	log.Printf("Found %d new result(s) to report", len(lines))

	sent := 0
	for _, line := range lines {
		r, err := ParseResult(line)
		if err != nil {
			log.Printf("ERROR: unparseable result %q: %v", line, err)
			continue
		}
		if r.IsPrime() {
			// Best-effort and fire-and-forget: the announcement channel
			// failing must never affect submission.
			go c.Notifier.AnnouncePrime(r.Exponent, line)
			if c.Config.NoReportPrimeAbove > 0 && r.Exponent > c.Config.NoReportPrimeAbove {
				log.Printf("M%d exceeds the no-report threshold; holding the result back", r.Exponent)
				continue
			}
		}
		if err := c.submitOne(r); err != nil {
			log.Printf("ERROR submitting result for M%d: %v", r.Exponent, err)
			continue
		}
		if err := c.markSent(line); err != nil {
			log.Printf("ERROR updating sent ledger: %v", err)
			return sent
		}
		sent++
	}
	return sent
}

// unsentResults returns the reportable lines of the results file that are
// not yet in the sent ledger, in file order.
func (c *Controller) unsentResults() ([]string, error) {
	data, err := os.ReadFile(c.Config.ResultsPath(c.Workdir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	sent := make(map[string]bool)
	if ledger, err := os.ReadFile(c.Config.SentPath(c.Workdir)); err == nil {
		for _, line := range strings.Split(string(ledger), "\n") {
			sent[strings.TrimSpace(line)] = true
		}
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !reportableLine.MatchString(line) || sent[line] {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}

// markSent appends the line to the cumulative sent ledger.
func (c *Controller) markSent(line string) error {
	f, err := os.OpenFile(c.Config.SentPath(c.Workdir), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

// submitOne reports one result. With a password configured the legacy
// manual-testing form is used; otherwise the v5 ar transaction. The
// advisory codes meaning "the server does not want this result" are
// treated as accepted, since resubmitting can never succeed.
func (c *Controller) submitOne(r *Result) error {
	if c.Config.Password != "" {
		return c.submitManual(r.Line)
	}
	_, err := c.retry("result submission", func(guid string) (primenet.Response, error) {
		return c.Client.Do(guid, c.resultParams(guid, r))
	})
	switch primenet.ServerErrorCode(err) {
	case primenet.ErrorNoAssignment, primenet.ErrorInvalidAssignmentKey,
		primenet.ErrorInvalidResultType, primenet.ErrorWorkNoLongerNeeded:
		log.Printf("Server no longer wants the result for M%d: %v", r.Exponent, err)
		return nil
	}
	return err
}

// resultParams builds the ar parameter set for one result.
func (c *Controller) resultParams(guid string, r *Result) *primenet.Params {
	p := primenet.NewParams(primenet.TxResult, guid)
	aid := r.AID
	if aid == "" {
		aid = strings.Repeat("0", 32)
	}
	p.Set("k", aid)
	p.Set("m", r.Line)
	p.Set("r", r.Type)
	p.Set("n", r.Exponent)
	p.Set("d", 1)

	ec := r.errorCode
	if ec == "" {
		ec = "00000000"
	}
	switch r.Type {
	case primenet.ARLLResult, primenet.ARLLPrime:
		if r.Type == primenet.ARLLResult {
			p.Set("rd", zfill(r.res64, 16))
		}
		if r.shiftCount != "" {
			p.Set("sc", r.shiftCount)
		}
		p.Set("ec", ec)
	case primenet.ARPRPResult, primenet.ARPRPPrime:
		p.Set("A", strconv.FormatFloat(r.k, 'f', -1, 64))
		p.Set("b", r.b)
		p.Set("c", r.c)
		if r.Type == primenet.ARPRPResult {
			p.Set("rd", zfill(r.res64, 16))
			if r.residueType != 0 {
				p.Set("rt", r.residueType)
			}
		}
		if r.shiftCount != "" {
			p.Set("sc", r.shiftCount)
		}
		p.Set("ec", ec)
		if len(r.knownFactors) > 0 {
			p.Set("nkf", len(r.knownFactors))
		}
		if r.prpBase != 0 {
			p.Set("base", r.prpBase)
		}
		if r.gerbicz {
			p.Set("gbz", 1)
		}
		if r.proofPower != 0 {
			p.Set("pp", r.proofPower)
			p.Set("ph", r.proofHash)
		}
	case primenet.ARP1Factor, primenet.ARP1NoFactor:
		p.Set("A", strconv.FormatFloat(r.k, 'f', -1, 64))
		p.Set("b", r.b)
		p.Set("c", r.c)
		p.Set("B1", r.b1)
		if r.b2 != "" {
			p.Set("B2", r.b2)
		}
		if r.Type == primenet.ARP1Factor {
			p.Set("f", strings.Join(r.factors, ","))
		}
	}
	return p
}

// zfill left-pads s with zeros to width n, matching the server's fixed
// residue field width.
func zfill(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}

// manualSubmissionURL is the legacy manual-testing result form.
const manualSubmissionURL = "https://www.mersenne.org/manual_result/default.php"

// submitManual posts the raw result line to the manual-testing form using
// the configured username and password. This path exists for accounts that
// predate the v5 API; it has no retry policy beyond the HTTP client's.
func (c *Controller) submitManual(line string) error {
	form := url.Values{
		"user_login":       {c.Config.Username},
		"user_password":    {c.Config.Password},
		"data":             {line},
		"was_logged_in_as": {c.Config.Username},
	}
	resp, err := http.PostForm(manualSubmissionURL, form)
	if err != nil {
		return fmt.Errorf("manual submission: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("manual submission: HTTP status %d", resp.StatusCode)
	}
	log.Printf("Submitted result through the manual testing form")
	return nil
}
