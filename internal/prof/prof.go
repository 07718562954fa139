// Package prof backs the build command's --cpu-profile, --mem-profile,
// and --trace flags with the runtime profilers.
package prof

import (
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

var (
	cpuOut   *os.File
	traceOut *os.File
)

// StartCPU begins CPU sampling into the file at path.
func StartCPU(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return err
	}
	cpuOut = f
	return nil
}

// StopCPU flushes and closes an active CPU profile. Safe to call when
// none is running.
func StopCPU() {
	pprof.StopCPUProfile()
	if cpuOut != nil {
		_ = cpuOut.Close()
		cpuOut = nil
	}
}

// StartTrace begins a runtime execution trace into the file at path.
func StartTrace(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := trace.Start(f); err != nil {
		_ = f.Close()
		return err
	}
	traceOut = f
	return nil
}

// StopTrace ends an active execution trace. Safe to call when none is
// running.
func StopTrace() {
	trace.Stop()
	if traceOut != nil {
		_ = traceOut.Close()
		traceOut = nil
	}
}

// WriteMem forces a collection and snapshots the heap profile to path.
func WriteMem(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}
