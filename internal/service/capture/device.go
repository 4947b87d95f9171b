package capture

import (
	"runtime"

	"gocv.io/x/gocv"
)

// Device is an open camera handle.
type Device interface {
	Set(prop gocv.VideoCaptureProperties, param float64)
	Read(m *gocv.Mat) bool
	IsOpened() bool
	Close() error
}

// Opener opens a camera by index through a capture backend.
type Opener interface {
	Open(index int, api gocv.VideoCaptureAPI) (Device, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(index int, api gocv.VideoCaptureAPI) (Device, error)

// Open implements Opener.
func (f OpenerFunc) Open(index int, api gocv.VideoCaptureAPI) (Device, error) {
	return f(index, api)
}

// VideoCaptureOpener opens real devices through OpenCV.
type VideoCaptureOpener struct{}

// Open implements Opener.
func (VideoCaptureOpener) Open(index int, api gocv.VideoCaptureAPI) (Device, error) {
	vc, err := gocv.OpenVideoCaptureWithAPI(index, api)
	if err != nil {
		if vc != nil {
			vc.Close()
		}
		return nil, err
	}
	return &videoCapture{vc: vc}, nil
}

type videoCapture struct {
	vc *gocv.VideoCapture
}

func (d *videoCapture) Set(prop gocv.VideoCaptureProperties, param float64) {
	d.vc.Set(prop, param)
}

func (d *videoCapture) Read(m *gocv.Mat) bool {
	return d.vc.Read(m)
}

func (d *videoCapture) IsOpened() bool {
	return d.vc.IsOpened()
}

func (d *videoCapture) Close() error {
	return d.vc.Close()
}

// PlatformFallbackAPI is the backend tried when no index passes its trial read:
// DirectShow on Windows, OpenCV's default elsewhere.
func PlatformFallbackAPI() gocv.VideoCaptureAPI {
	if runtime.GOOS == "windows" {
		return gocv.VideoCaptureDshow
	}
	return gocv.VideoCaptureAny
}
