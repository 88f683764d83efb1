package work

import (
	"encoding/csv"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// recordPattern is the permissive fast-reject gate: keyword, optional
// 32-hex assignment ID, then 3-9 comma-separated numeric or quoted-list
// fields. Semantic validation happens after field splitting.
var recordPattern = regexp.MustCompile(
	`(?i)^(Test|DoubleCheck|PRPDC|PRP|PFactor|Pminus1|Cert)\s*=\s*` +
		`((?:[0-9A-F]{32},)?(?:-?\d+(?:\.\d+)?|"\d+(?:,\d+)*")(?:,(?:-?\d+(?:\.\d+)?|"\d+(?:,\d+)*")){2,8})$`)

var uidPattern = regexp.MustCompile(`^[0-9A-Fa-f]{32}$`)

// ParseError reports a work-queue record that failed to parse. Callers are
// expected to log it and continue with sibling lines.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid work-queue record %q: %s", e.Line, e.Reason)
}

// Parse parses one work-queue record, e.g.
//
//	Test=197ED240A7A41EC575CB408F32DDA661,57600769,74,1
func Parse(line string) (*Assignment, error) {
	line = strings.TrimSpace(line)
	m := recordPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, &ParseError{Line: line, Reason: "does not match any record form"}
	}
	kind, ok := kindFromKeyword(m[1])
	if !ok {
		return nil, &ParseError{Line: line, Reason: "unknown work kind"}
	}

	r := csv.NewReader(strings.NewReader(m[2]))
	fields, err := r.Read()
	if err != nil {
		return nil, &ParseError{Line: line, Reason: err.Error()}
	}

	a := &Assignment{
		Kind:       kind,
		K:          1.0,
		B:          2,
		C:          -1,
		SieveDepth: 99.0,
		PMinus1ed:  1,
	}
	if len(fields) > 0 && uidPattern.MatchString(fields[0]) {
		a.UID = strings.ToUpper(fields[0])
		fields = fields[1:]
	}

	if err := a.setFields(fields); err != nil {
		return nil, &ParseError{Line: line, Reason: err.Error()}
	}

	// A default-Mersenne-form assignment with a composite exponent is
	// malformed. P-1 work on known-composite exponents is legitimate.
	if a.IsMersenne() && a.Kind != KindPMinus1 && !IsPrime(a.N) {
		return nil, &ParseError{Line: line, Reason: fmt.Sprintf("composite exponent %d", a.N)}
	}
	return a, nil
}

func (a *Assignment) setFields(fields []string) error {
	switch a.Kind {
	case KindTest, KindDoubleCheck:
		if len(fields) != 3 {
			return fmt.Errorf("%s takes 3 fields, got %d", a.Kind, len(fields))
		}
		a.N = atoi(fields[0])
		a.SieveDepth = atof(fields[1])
		a.HasSieveDepth = true
		a.PMinus1ed = atoi(fields[2])

	case KindPRP, KindPRPDC:
		if len(fields) < 4 {
			return fmt.Errorf("%s takes at least 4 fields, got %d", a.Kind, len(fields))
		}
		a.K = atof(fields[0])
		a.B = atoi(fields[1])
		a.N = atoi(fields[2])
		a.C = atoi(fields[3])
		rest := fields[4:]
		if len(rest) >= 2 {
			a.SieveDepth = atof(rest[0])
			a.TestsSaved = atof(rest[1])
			a.HasSieveDepth = true
			rest = rest[2:]
			if len(rest) >= 2 {
				a.PRPBase = atoi(rest[0])
				a.PRPResidueType = atoi(rest[1])
				rest = rest[2:]
			}
		}
		switch len(rest) {
		case 0:
		case 1:
			a.KnownFactors = rest[0]
		default:
			return fmt.Errorf("%s has %d trailing fields", a.Kind, len(rest))
		}

	case KindPFactor:
		if len(fields) != 6 {
			return fmt.Errorf("%s takes 6 fields, got %d", a.Kind, len(fields))
		}
		a.K = atof(fields[0])
		a.B = atoi(fields[1])
		a.N = atoi(fields[2])
		a.C = atoi(fields[3])
		a.SieveDepth = atof(fields[4])
		a.HasSieveDepth = true
		a.TestsSaved = atof(fields[5])

	case KindPMinus1:
		if len(fields) < 6 || len(fields) > 8 {
			return fmt.Errorf("%s takes 6-8 fields, got %d", a.Kind, len(fields))
		}
		a.K = atof(fields[0])
		a.B = atoi(fields[1])
		a.N = atoi(fields[2])
		a.C = atoi(fields[3])
		a.B1 = atof(fields[4])
		a.B2 = atof(fields[5])
		if len(fields) >= 7 {
			a.SieveDepth = atof(fields[6])
			a.HasSieveDepth = true
		}
		if len(fields) == 8 {
			a.KnownFactors = fields[7]
		}

	case KindCert:
		if len(fields) != 5 {
			return fmt.Errorf("%s takes 5 fields, got %d", a.Kind, len(fields))
		}
		a.K = atof(fields[0])
		a.B = atoi(fields[1])
		a.N = atoi(fields[2])
		a.C = atoi(fields[3])
		a.CertSquarings = atoi(fields[4])
	}
	return nil
}

// The gate pattern guarantees numeric fields, so conversion failures are
// unreachable; a zero value on a malformed field is acceptable there.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
