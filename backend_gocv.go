//go:build gocv

package main

import (
	"github.com/chaos-io/cloak/cloak"
	"github.com/chaos-io/cloak/cloak/opencv"
)

func opencvOptions() ([]cloak.Option, error) {
	return []cloak.Option{
		cloak.WithSegmenter(opencv.NewSegmenter()),
		cloak.WithSmoother(opencv.NewSmoother()),
	}, nil
}
