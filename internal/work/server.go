package work

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/primenet"
)

// badExponentFloor rejects obviously wrong server answers: LL and factoring
// assignments are never handed out below this exponent any more.
const badExponentFloor = 15000000

// FromServer builds a work-queue record from a decoded ga response.
// supported holds the work type codes the configured worker program can
// run; anything else is rejected so it can be unreserved by the caller.
func FromServer(r primenet.Response, supported map[int]bool) (string, error) {
	w, err := strconv.Atoi(r["w"])
	if err != nil {
		return "", fmt.Errorf("assignment response missing work type: %q", r["w"])
	}
	n, _ := strconv.Atoi(r["n"])
	switch w {
	case primenet.WorkTypeFactor, primenet.WorkTypePFactor,
		primenet.WorkTypeFirstLL, primenet.WorkTypeDblChk:
		if n < badExponentFloor {
			return "", fmt.Errorf("server sent bad exponent %d for work type %d", n, w)
		}
	}
	if !supported[w] {
		return "", fmt.Errorf("work type %d is not supported by the configured program", w)
	}

	join := func(keys ...string) string {
		vals := make([]string, len(keys))
		for i, k := range keys {
			vals[i] = r[k]
		}
		return strings.Join(vals, ",")
	}

	switch w {
	case primenet.WorkTypeFirstLL:
		return "Test=" + join("k", "n", "sf", "p1"), nil
	case primenet.WorkTypeDblChk:
		return "DoubleCheck=" + join("k", "n", "sf", "p1"), nil
	case primenet.WorkTypePRP:
		keyword := "PRP"
		if _, dc := r["dc"]; dc {
			keyword = "PRPDC"
		}
		rec := keyword + "=" + join("k", "A", "b", "n", "c")
		_, hasSF := r["sf"]
		_, hasSaved := r["saved"]
		if hasSF || hasSaved {
			rec += "," + join("sf", "saved")
			_, hasBase := r["base"]
			_, hasRT := r["rt"]
			if hasBase || hasRT {
				rec += "," + join("base", "rt")
			}
		}
		if kf, ok := r["kf"]; ok {
			rec += `,"` + kf + `"`
		}
		return rec, nil
	case primenet.WorkTypePFactor:
		return "Pfactor=" + join("k", "A", "b", "n", "c", "sf", "saved"), nil
	case primenet.WorkTypeCert:
		return "Cert=" + join("k", "A", "b", "n", "c", "ns"), nil
	}
	return "", fmt.Errorf("received unknown work type %d", w)
}
