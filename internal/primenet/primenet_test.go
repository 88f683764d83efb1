package primenet

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParamsEncodePreservesOrder(t *testing.T) {
	p := NewParams(TxGetAssignment, "0123456789abcdef0123456789abcdef")
	p.Set("c", 0)
	p.Set("a", "")

	got := p.Encode()
	want := "px=GIMPS&v=0.95&t=ga&g=0123456789abcdef0123456789abcdef&c=0&a="
	if got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestParamsSetReplacesInPlace(t *testing.T) {
	p := &Params{}
	p.Set("a", 1)
	p.Set("b", 2)
	p.Set("a", 3)

	if got := p.Encode(); got != "a=3&b=2" {
		t.Errorf("Encode() = %q, want a=3&b=2", got)
	}
}

func TestSignatureIsDeterministic(t *testing.T) {
	guid := "00000000000000000000000000000000"

	build := func() *Params {
		p := NewParams(TxUnreserve, guid)
		p.Set("k", "197ED240A7A41EC575CB408F32DDA661")
		return p
	}

	p1, p2 := build(), build()
	signWithSalt(guid, 12345, p1)
	signWithSalt(guid, 12345, p2)

	if p1.Get("sh") == "" {
		t.Fatal("signature not set")
	}
	if p1.Get("sh") != p2.Get("sh") {
		t.Errorf("same salt produced different signatures: %q vs %q", p1.Get("sh"), p2.Get("sh"))
	}
	if p1.Get("ss") != "12345" {
		t.Errorf("salt = %q, want 12345", p1.Get("ss"))
	}

	// A different salt must change the signature.
	p3 := build()
	signWithSalt(guid, 12346, p3)
	if p3.Get("sh") == p1.Get("sh") {
		t.Error("different salts produced identical signatures")
	}

	// Signature must be 32 uppercase hex chars.
	sh := p1.Get("sh")
	if len(sh) != 32 || sh != strings.ToUpper(sh) {
		t.Errorf("signature %q is not 32 uppercase hex chars", sh)
	}
}

func TestInstallKeyDependsOnGUID(t *testing.T) {
	a := installKey("00000000000000000000000000000000")
	b := installKey("00000000000000000000000000000001")
	if a == b {
		t.Error("install key did not change with GUID")
	}
	if len(a) != 32 {
		t.Errorf("install key length = %d, want 32", len(a))
	}
}

func TestDecodeResponseStopsAtSentinel(t *testing.T) {
	body := "pnErrorResult=32\npnErrorDetail=Stale\n==END==\nignored=1"
	r := DecodeResponse(body)

	if r["pnErrorResult"] != "32" {
		t.Errorf("pnErrorResult = %q, want 32", r["pnErrorResult"])
	}
	if r["pnErrorDetail"] != "Stale" {
		t.Errorf("pnErrorDetail = %q, want Stale", r["pnErrorDetail"])
	}
	if _, ok := r["ignored"]; ok {
		t.Error("line after ==END== sentinel must not be parsed")
	}
}

func TestDecodeResponseCRLF(t *testing.T) {
	r := DecodeResponse("pnErrorResult=0\r\npnErrorDetail=SUCCESS\r\n==END==\r\n")
	if r["pnErrorResult"] != "0" || r["pnErrorDetail"] != "SUCCESS" {
		t.Errorf("unexpected decode: %v", r)
	}
}

func TestResponseErrMapping(t *testing.T) {
	r := Response{"pnErrorResult": "30", "pnErrorDetail": "nope"}
	err := r.Err()
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if se.Code != ErrorUnregisteredCPU {
		t.Errorf("code = %d, want %d", se.Code, ErrorUnregisteredCPU)
	}
	if !strings.Contains(se.Error(), "CPU not registered") {
		t.Errorf("message %q missing name for code 30", se.Error())
	}

	// Unmapped non-zero code is still an error.
	r = Response{"pnErrorResult": "999"}
	if err := r.Err(); err == nil {
		t.Error("unmapped non-zero code must be an error")
	} else if !strings.Contains(err.Error(), "Unknown error code") {
		t.Errorf("unexpected message: %v", err)
	}

	// Zero code with advisory detail is success.
	r = Response{"pnErrorResult": "0", "pnErrorDetail": "quota nearly exhausted"}
	if err := r.Err(); err != nil {
		t.Errorf("advisory detail must not be an error, got %v", err)
	}
}

func TestClientDoServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("sh") == "" {
			t.Error("request is missing signature")
		}
		fmt.Fprint(w, "pnErrorResult=40\npnErrorDetail=no work\n==END==\n")
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	r, err := c.Do("00000000000000000000000000000000", NewParams(TxGetAssignment, "00000000000000000000000000000000"))
	if ServerErrorCode(err) != ErrorNoAssignment {
		t.Fatalf("expected no-assignment server error, got %v", err)
	}
	if r == nil {
		t.Error("decoded response should accompany a server error")
	}
}

func TestClientDoNoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	_, err := c.Do("00000000000000000000000000000000", NewParams(TxProgress, "00000000000000000000000000000000"))
	if !errors.Is(err, ErrNoResponse) {
		t.Fatalf("HTTP 500 must map to ErrNoResponse, got %v", err)
	}
	if ServerErrorCode(err) != -1 {
		t.Error("transport failure must not carry a server error code")
	}

	srv.Close()
	_, err = c.Do("00000000000000000000000000000000", NewParams(TxProgress, "00000000000000000000000000000000"))
	if !errors.Is(err, ErrNoResponse) {
		t.Fatalf("connection failure must map to ErrNoResponse, got %v", err)
	}
}
