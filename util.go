package main

import (
	"io/fs"
	"os"

	"github.com/datawire/cirun/pkg/manifest"
)

// defaultManifestFile is the manifest filename used when no positional
// argument is given.
const defaultManifestFile = "appveyor.yml"

func manifestFile(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return defaultManifestFile
}

func openManifest(filename string) (*manifest.Manifest, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Parse(bs)
	if err != nil {
		return nil, &fs.PathError{
			Op:   "parse manifest",
			Path: filename,
			Err:  err,
		}
	}
	return m, nil
}
