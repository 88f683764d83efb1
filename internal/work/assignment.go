// Package work models PrimeNet assignments and the line-oriented work-queue
// record format used by the worktodo file.
package work

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the category of test an assignment describes.
type Kind string

const (
	KindTest        Kind = "Test"        // first-time Lucas-Lehmer
	KindDoubleCheck Kind = "DoubleCheck" // LL double-check
	KindPRP         Kind = "PRP"
	KindPRPDC       Kind = "PRPDC"
	KindPFactor     Kind = "Pfactor" // P-1 factoring
	KindPMinus1     Kind = "Pminus1"
	KindCert        Kind = "Cert"
)

// kindFromKeyword resolves a case-insensitive record keyword.
func kindFromKeyword(kw string) (Kind, bool) {
	switch strings.ToLower(kw) {
	case "test":
		return KindTest, true
	case "doublecheck":
		return KindDoubleCheck, true
	case "prp":
		return KindPRP, true
	case "prpdc":
		return KindPRPDC, true
	case "pfactor":
		return KindPFactor, true
	case "pminus1":
		return KindPMinus1, true
	case "cert":
		return KindCert, true
	}
	return "", false
}

// IsLLOrPRP reports whether the kind is in the LL/PRP primality-test family
// (the kinds whose total work is proportional to the exponent).
func (k Kind) IsLLOrPRP() bool {
	switch k {
	case KindTest, KindDoubleCheck, KindPRP, KindPRPDC:
		return true
	}
	return false
}

// Assignment is one server-reserved unit of work, testing k·b^n+c.
type Assignment struct {
	Kind Kind
	// UID is the 32-hex-char assignment ID; empty for legacy records.
	UID string

	K float64
	B int
	N int
	C int

	SieveDepth    float64
	HasSieveDepth bool
	PMinus1ed     int
	B1            float64
	B2            float64
	TestsSaved    float64

	PRPBase        int
	PRPResidueType int
	KnownFactors   string
	CertSquarings  int
}

// IsMersenne reports whether the assignment has the default Mersenne form
// 2^n-1.
func (a *Assignment) IsMersenne() bool {
	return a.K == 1.0 && a.B == 2 && a.C == -1
}

// String serializes the assignment back into its work-queue record form.
// It is the structural inverse of Parse.
func (a *Assignment) String() string {
	var fields []string
	if a.UID != "" {
		fields = append(fields, a.UID)
	}
	switch a.Kind {
	case KindTest, KindDoubleCheck:
		fields = append(fields, itoa(a.N), ftoa(a.SieveDepth), itoa(a.PMinus1ed))
	case KindPRP, KindPRPDC:
		fields = append(fields, ftoa(a.K), itoa(a.B), itoa(a.N), itoa(a.C))
		if a.HasSieveDepth {
			fields = append(fields, ftoa(a.SieveDepth), ftoa(a.TestsSaved))
			if a.PRPBase != 0 {
				fields = append(fields, itoa(a.PRPBase), itoa(a.PRPResidueType))
			}
		}
		if a.KnownFactors != "" {
			fields = append(fields, `"`+a.KnownFactors+`"`)
		}
	case KindPFactor:
		fields = append(fields, ftoa(a.K), itoa(a.B), itoa(a.N), itoa(a.C),
			ftoa(a.SieveDepth), ftoa(a.TestsSaved))
	case KindPMinus1:
		fields = append(fields, ftoa(a.K), itoa(a.B), itoa(a.N), itoa(a.C),
			ftoa(a.B1), ftoa(a.B2))
		if a.HasSieveDepth {
			fields = append(fields, ftoa(a.SieveDepth))
		}
		if a.KnownFactors != "" {
			fields = append(fields, `"`+a.KnownFactors+`"`)
		}
	case KindCert:
		fields = append(fields, ftoa(a.K), itoa(a.B), itoa(a.N), itoa(a.C),
			itoa(a.CertSquarings))
	}
	return fmt.Sprintf("%s=%s", a.Kind, strings.Join(fields, ","))
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// IsPrime reports primality by trial division up to √n. Exponents are
// always far below any range that would need a faster test.
func IsPrime(n int) bool {
	if n < 2 {
		return false
	}
	for p := 2; p*p <= n; p++ {
		if n%p == 0 {
			return false
		}
	}
	return true
}
