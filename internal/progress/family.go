package progress

import "github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/work"

// Family selects which worker program's status artifacts to read.
type Family int

const (
	FamilyMlucas Family = iota
	FamilyGpuOwl
	FamilyCUDALucas
)

func (f Family) String() string {
	switch f {
	case FamilyMlucas:
		return "Mlucas"
	case FamilyGpuOwl:
		return "GpuOwl"
	case FamilyCUDALucas:
		return "CUDALucas"
	}
	return "unknown"
}

// ForAssignment reads the status artifact for a single assignment.
// cudaFile is the CUDALucas output filename and is only consulted for that
// family.
func ForAssignment(f Family, workdir, cudaFile string, a *work.Assignment) Stats {
	switch f {
	case FamilyGpuOwl:
		return ParseGpuOwlLog(workdir, a.N)
	case FamilyCUDALucas:
		return ParseCUDALucasOutput(workdir, cudaFile, a.N)
	default:
		return ParseMlucasStat(workdir, a.N)
	}
}
