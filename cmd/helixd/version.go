package main

import (
	"fmt"
	"runtime/debug"

	helix "helix.run/core"
)

func versionString() string {
	version := helix.Version
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	return fmt.Sprintf("helixd %s", version)
}
