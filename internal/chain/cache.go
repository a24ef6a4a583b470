package chain

import (
	"fmt"
	"os"

	"github.com/Sereal/Sereal/Go/sereal"
)

// cachedChains is the Sereal-serialized payload stored in a sidecar file:
// the parsed chain stanzas plus the source file's mtime/size, so a stale
// cache (source file touched or resized since) is detected and discarded.
// Grounded on teacher internal/cache/sereal.go, which serializes VEP
// cache transcripts the same way; here the payload is parsed chain
// blocks instead of transcripts.
type cachedChains struct {
	SourceModTime int64
	SourceSize    int64
	Chains        []Chain
}

// LoadCached parses path (a chain file), consulting a sidecar
// path+".srl" cache keyed on path's mtime and size. A stale or missing
// cache falls through to a full reparse, and the result is written back
// to the sidecar for the next run.
func LoadCached(path string) (*Provider, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat chain file: %w", err)
	}

	sidecarPath := path + ".srl"
	if cached, ok := tryLoadSidecar(sidecarPath, info.ModTime().Unix(), info.Size()); ok {
		return &Provider{chains: cached.Chains}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chain file: %w", err)
	}
	defer f.Close()

	chains, err := ParseChains(f)
	if err != nil {
		return nil, err
	}

	_ = writeSidecar(sidecarPath, cachedChains{
		SourceModTime: info.ModTime().Unix(),
		SourceSize:    info.Size(),
		Chains:        chains,
	})

	return &Provider{chains: chains}, nil
}

func tryLoadSidecar(path string, modTime, size int64) (cachedChains, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cachedChains{}, false
	}
	var cc cachedChains
	if err := sereal.Unmarshal(data, &cc); err != nil {
		return cachedChains{}, false
	}
	if cc.SourceModTime != modTime || cc.SourceSize != size {
		return cachedChains{}, false
	}
	return cc, true
}

func writeSidecar(path string, cc cachedChains) error {
	data, err := sereal.Marshal(cc)
	if err != nil {
		return fmt.Errorf("sereal marshal chain cache: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
