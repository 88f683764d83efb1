package work

import (
	"reflect"
	"strings"
	"testing"

	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/primenet"
)

func TestParseTestRecord(t *testing.T) {
	uid := strings.Repeat("A", 32)
	a, err := Parse("Test=" + uid + ",11213,0,0")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if a.Kind != KindTest {
		t.Errorf("Kind = %s, want Test", a.Kind)
	}
	if a.UID != uid {
		t.Errorf("UID = %q, want %q", a.UID, uid)
	}
	if a.N != 11213 {
		t.Errorf("N = %d, want 11213", a.N)
	}
	if a.SieveDepth != 0 {
		t.Errorf("SieveDepth = %v, want 0", a.SieveDepth)
	}
	if a.PMinus1ed != 0 {
		t.Errorf("PMinus1ed = %d, want 0", a.PMinus1ed)
	}
}

func TestParseWithoutAssignmentID(t *testing.T) {
	a, err := Parse("DoubleCheck=21701,74,1")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if a.UID != "" {
		t.Errorf("legacy record should have no UID, got %q", a.UID)
	}
	if a.Kind != KindDoubleCheck || a.N != 21701 {
		t.Errorf("got %s/%d, want DoubleCheck/21701", a.Kind, a.N)
	}
}

func TestParsePRPVariants(t *testing.T) {
	uid := "197ED240A7A41EC575CB408F32DDA661"

	a, err := Parse("PRP=" + uid + ",1,2,86243,-1")
	if err != nil {
		t.Fatalf("short PRP: %v", err)
	}
	if a.HasSieveDepth {
		t.Error("short PRP record should not carry a sieve depth")
	}

	a, err = Parse("PRP=" + uid + ",1,2,86243,-1,76,0.1")
	if err != nil {
		t.Fatalf("PRP with sieve: %v", err)
	}
	if !a.HasSieveDepth || a.SieveDepth != 76 || a.TestsSaved != 0.1 {
		t.Errorf("sieve fields not parsed: %+v", a)
	}

	a, err = Parse("PRPDC=" + uid + ",1,2,86243,-1,76,0.1,3,1")
	if err != nil {
		t.Fatalf("PRPDC with base/rt: %v", err)
	}
	if a.Kind != KindPRPDC {
		t.Errorf("Kind = %s, want PRPDC", a.Kind)
	}
	if a.PRPBase != 3 || a.PRPResidueType != 1 {
		t.Errorf("base/residue = %d/%d, want 3/1", a.PRPBase, a.PRPResidueType)
	}

	a, err = Parse(`PRP=` + uid + `,5,2,86243,-1,76,0.1,3,1,"2,3"`)
	if err != nil {
		t.Fatalf("PRP with known factors: %v", err)
	}
	if a.KnownFactors != "2,3" {
		t.Errorf("KnownFactors = %q, want 2,3", a.KnownFactors)
	}
}

func TestParsePMinus1AllowsCompositeExponent(t *testing.T) {
	// 86245 is composite; P-1 work tolerates that.
	if _, err := Parse("Pminus1=1,2,86245,-1,700000,20000000"); err != nil {
		t.Fatalf("Pminus1 with composite exponent must parse: %v", err)
	}
}

func TestParseRejectsCompositeMersenneExponent(t *testing.T) {
	lines := []string{
		"Test=" + strings.Repeat("A", 32) + ",11214,0,0",
		"DoubleCheck=21703,74,1", // 21703 = 11 * 1973
		"PRP=" + strings.Repeat("B", 32) + ",1,2,86245,-1",
	}
	for _, line := range lines {
		if _, err := Parse(line); err == nil {
			t.Errorf("Parse(%q) must reject composite exponent", line)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	lines := []string{
		"",
		"Test=",
		"Test=11213",
		"Frobnicate=1,2,3",
		"Test=11213,0,0,extra,words,beyond,the,nine,field,limit",
		"just some log text",
	}
	for _, line := range lines {
		if _, err := Parse(line); err == nil {
			t.Errorf("Parse(%q) should fail", line)
		}
	}
}

func TestParseKeywordCaseInsensitive(t *testing.T) {
	for _, line := range []string{
		"PFactor=1,2,77232917,-1,76,1.2",
		"pfactor=1,2,77232917,-1,76,1.2",
		"PMINUS1=1,2,77232917,-1,700000,20000000",
	} {
		if _, err := Parse(line); err != nil {
			t.Errorf("Parse(%q) failed: %v", line, err)
		}
	}
}

func TestRoundTripStability(t *testing.T) {
	uid := "197ED240A7A41EC575CB408F32DDA661"
	lines := []string{
		"Test=" + uid + ",57885161,74,1",
		"DoubleCheck=57885161,74,0",
		"PRP=" + uid + ",1,2,77232917,-1",
		"PRP=" + uid + ",1,2,77232917,-1,76,1.3",
		"PRPDC=" + uid + ",1,2,77232917,-1,76,1.3,3,5",
		`PRP=` + uid + `,5,2,77232917,-1,76,1.3,3,1,"2,3"`,
		"Pfactor=" + uid + ",1,2,77232917,-1,76,1.3",
		"Pminus1=1,2,77232917,-1,700000,20000000",
		"Pminus1=1,2,77232917,-1,700000,20000000,76",
		"Cert=" + uid + ",1,2,77232917,-1,12345",
	}
	for _, line := range lines {
		first, err := Parse(line)
		if err != nil {
			t.Errorf("Parse(%q): %v", line, err)
			continue
		}
		second, err := Parse(first.String())
		if err != nil {
			t.Errorf("reparse of %q (from %q): %v", first.String(), line, err)
			continue
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("round trip changed %q:\n first: %+v\nsecond: %+v", line, first, second)
		}
	}
}

func TestIsPrime(t *testing.T) {
	primes := []int{2, 3, 5, 11213, 21701, 57885161}
	for _, p := range primes {
		if !IsPrime(p) {
			t.Errorf("IsPrime(%d) = false, want true", p)
		}
	}
	composites := []int{0, 1, 4, 11214, 21703, 57885165}
	for _, c := range composites {
		if IsPrime(c) {
			t.Errorf("IsPrime(%d) = true, want false", c)
		}
	}
}

func TestFromServer(t *testing.T) {
	supported := map[int]bool{
		primenet.WorkTypeFirstLL: true,
		primenet.WorkTypeDblChk:  true,
		primenet.WorkTypePRP:     true,
		primenet.WorkTypePFactor: true,
	}

	r := primenet.Response{
		"w": "100", "k": "197ED240A7A41EC575CB408F32DDA661",
		"n": "57885161", "sf": "74", "p1": "1",
	}
	rec, err := FromServer(r, supported)
	if err != nil {
		t.Fatalf("FromServer: %v", err)
	}
	want := "Test=197ED240A7A41EC575CB408F32DDA661,57885161,74,1"
	if rec != want {
		t.Errorf("record = %q, want %q", rec, want)
	}
	if _, err := Parse(rec); err != nil {
		t.Errorf("server-built record must parse: %v", err)
	}

	r = primenet.Response{
		"w": "150", "k": "197ED240A7A41EC575CB408F32DDA661", "A": "1",
		"b": "2", "n": "77232917", "c": "-1", "sf": "76", "saved": "1.3",
		"dc": "1",
	}
	rec, err = FromServer(r, supported)
	if err != nil {
		t.Fatalf("FromServer PRP: %v", err)
	}
	if !strings.HasPrefix(rec, "PRPDC=") {
		t.Errorf("dc flag must produce a PRPDC record, got %q", rec)
	}

	// Bad exponent for an LL assignment.
	r = primenet.Response{"w": "100", "k": "X", "n": "11213", "sf": "74", "p1": "0"}
	if _, err := FromServer(r, supported); err == nil {
		t.Error("exponent below the floor must be rejected")
	}

	// Unsupported work type.
	r = primenet.Response{"w": "200", "k": "X", "n": "77232917"}
	if _, err := FromServer(r, supported); err == nil {
		t.Error("unsupported work type must be rejected")
	}
}
