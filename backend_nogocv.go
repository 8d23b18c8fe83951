//go:build !gocv

package main

import (
	"errors"

	"github.com/chaos-io/cloak/cloak"
)

func opencvOptions() ([]cloak.Option, error) {
	return nil, errors.New("opencv backend requires building with -tags gocv")
}
