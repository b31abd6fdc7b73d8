//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/sh"
)

// Container image constants.
const (
	imageName  = "rowedit"
	imageTag   = "latest"
	dockerfile = "Dockerfile"
)

// containerRuntime returns "podman" or "docker" if a working runtime
// is available, or "" if neither is usable. It checks both that the
// binary exists on PATH and that it can connect to its daemon/machine.
func containerRuntime() string {
	for _, name := range []string{"podman", "docker"} {
		if _, err := exec.LookPath(name); err != nil {
			continue
		}
		if exec.Command(name, "info").Run() != nil {
			fmt.Fprintf(os.Stderr, "WARNING: %s found on PATH but not usable (is the daemon/machine running?)\n", name)
			continue
		}
		return name
	}
	return ""
}

func imageRef() string {
	return imageName + ":" + imageTag
}

// Image builds the server container image from the repo root Dockerfile.
func Image() error {
	rt := containerRuntime()
	if rt == "" {
		return errors.New("no container runtime found (install podman or docker)")
	}
	fmt.Fprintf(os.Stderr, "Building %s with %s...\n", imageRef(), rt)
	return sh.RunV(rt, "build", "-f", dockerfile, "-t", imageRef(), ".")
}
