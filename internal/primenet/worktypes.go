package primenet

// Work preference codes sent when requesting assignments.
const (
	WPPFactor        = 4   // P-1 of large Mersennes
	WPLLFirst        = 100 // smallest available first-time LL
	WPLLDoubleCheck  = 101
	WPLLWorldRecord  = 102
	WPLL100M         = 104
	WPPRPFirst       = 150
	WPPRPDoubleCheck = 151
	WPPRPWorldRecord = 152
	WPPRP100M        = 153
)

// Work type codes returned in the "w" field of a ga response.
const (
	WorkTypeFactor  = 2
	WorkTypePMinus1 = 3
	WorkTypePFactor = 4
	WorkTypeECM     = 5
	WorkTypeFirstLL = 100
	WorkTypeDblChk  = 101
	WorkTypePRP     = 150
	WorkTypeCert    = 200
)

// Assignment result type codes sent in the "r" field of an ar request.
const (
	ARNoResult    = 0
	ARTFFactor    = 1
	ARP1Factor    = 2
	ARECMFactor   = 3
	ARTFNoFactor  = 4
	ARP1NoFactor  = 5
	ARECMNoFactor = 6
	ARLLResult    = 100 // LL result, not prime
	ARLLPrime     = 101 // LL result, Mersenne prime
	ARPRPResult   = 150 // PRP result, not prime
	ARPRPPrime    = 151 // PRP result, probably prime
	ARCert        = 200
)
