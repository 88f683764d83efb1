// Package primenet implements the PrimeNet v5 transaction protocol: signed
// request construction, the flat key=value response format and the server's
// numeric error taxonomy.
package primenet

import "fmt"

// Transaction identifies one of the seven v5 API transaction types.
type Transaction int

const (
	TxUpdateComputer Transaction = iota // uc
	TxProgramOptions                    // po
	TxGetAssignment                     // ga
	TxRegisterAssignment                // ra
	TxUnreserve                         // au
	TxProgress                          // ap
	TxResult                            // ar
)

// Code returns the wire code sent in the "t" parameter.
func (t Transaction) Code() string {
	switch t {
	case TxUpdateComputer:
		return "uc"
	case TxProgramOptions:
		return "po"
	case TxGetAssignment:
		return "ga"
	case TxRegisterAssignment:
		return "ra"
	case TxUnreserve:
		return "au"
	case TxProgress:
		return "ap"
	case TxResult:
		return "ar"
	}
	panic(fmt.Sprintf("primenet: unknown transaction %d", int(t)))
}

func (t Transaction) String() string { return t.Code() }
