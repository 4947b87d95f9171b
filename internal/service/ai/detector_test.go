package ai

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"weaponcam/internal/apperr"
	"weaponcam/internal/logger"

	"gocv.io/x/gocv"
)

func TestLoadModel_MissingWeights(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "yolov3_testing.cfg")
	if err := os.WriteFile(cfgPath, []byte("[net]\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	_, err := LoadModel(filepath.Join(dir, "missing.weights"), cfgPath, 416, logger.Discard())
	if !errors.Is(err, apperr.ErrModelLoad) {
		t.Errorf("Expected ErrModelLoad, got %v", err)
	}
}

func TestLoadModel_MissingConfig(t *testing.T) {
	dir := t.TempDir()
	weights := filepath.Join(dir, "yolov3.weights")
	if err := os.WriteFile(weights, []byte{0, 1, 2}, 0644); err != nil {
		t.Fatalf("Failed to write weights: %v", err)
	}

	_, err := LoadModel(weights, filepath.Join(dir, "missing.cfg"), 416, logger.Discard())
	if !errors.Is(err, apperr.ErrModelLoad) {
		t.Errorf("Expected ErrModelLoad, got %v", err)
	}
}

func TestResolveOutputLayers(t *testing.T) {
	names := []string{"conv_0", "yolo_82", "conv_83", "yolo_94", "yolo_106"}

	got := resolveOutputLayers(names, []int{2, 4, 5, 9})
	expected := []string{"yolo_82", "yolo_94", "yolo_106"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestOutput_Row(t *testing.T) {
	out := Output{Rows: 2, Cols: 3, Data: []float32{1, 2, 3, 4, 5, 6}}
	if got := out.Row(1); !reflect.DeepEqual(got, []float32{4, 5, 6}) {
		t.Errorf("Expected [4 5 6], got %v", got)
	}
}

// recordingNetwork returns one 2x6 float blob per requested layer and records
// every call.
type recordingNetwork struct {
	calls      [][]string
	blobShapes [][]int
	closed     int
}

func (n *recordingNetwork) Forward(blob gocv.Mat, layers []string) []gocv.Mat {
	n.calls = append(n.calls, append([]string(nil), layers...))
	n.blobShapes = append(n.blobShapes, blob.Size())

	outs := make([]gocv.Mat, len(layers))
	for i := range layers {
		m := gocv.NewMatWithSize(2, 6, gocv.MatTypeCV32F)
		for c := 0; c < 6; c++ {
			m.SetFloatAt(0, c, float32(i))
			m.SetFloatAt(1, c, float32(c))
		}
		outs[i] = m
	}
	return outs
}

func (n *recordingNetwork) Close() error {
	n.closed++
	return nil
}

func TestForward_ReusesResolvedOutputLayers(t *testing.T) {
	net := &recordingNetwork{}
	model := &Model{
		net:          net,
		outputLayers: resolveOutputLayers([]string{"conv_0", "yolo_82", "yolo_94"}, []int{2, 3}),
		inputSize:    image.Pt(416, 416),
		logger:       logger.Discard(),
	}

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	for i := 0; i < 3; i++ {
		outputs, err := model.Forward(frame)
		if err != nil {
			t.Fatalf("Forward #%d: %v", i, err)
		}
		if len(outputs) != 2 {
			t.Fatalf("Expected 2 outputs, got %d", len(outputs))
		}
		if outputs[1].Rows != 2 || outputs[1].Cols != 6 {
			t.Errorf("Expected 2x6 output, got %dx%d", outputs[1].Rows, outputs[1].Cols)
		}
		if got := outputs[1].Row(0); got[0] != 1 {
			t.Errorf("Expected layer index in row 0, got %v", got)
		}
		if got := outputs[0].Row(1); !reflect.DeepEqual(got, []float32{0, 1, 2, 3, 4, 5}) {
			t.Errorf("Expected [0 1 2 3 4 5], got %v", got)
		}
	}

	for i, layers := range net.calls {
		if !reflect.DeepEqual(layers, model.OutputLayers()) {
			t.Errorf("Call %d used layers %v, expected %v", i, layers, model.OutputLayers())
		}
	}
	if !reflect.DeepEqual(model.OutputLayers(), []string{"yolo_82", "yolo_94"}) {
		t.Errorf("Unexpected output layers %v", model.OutputLayers())
	}
	if !reflect.DeepEqual(net.blobShapes[0], []int{1, 3, 416, 416}) {
		t.Errorf("Expected blob shape [1 3 416 416], got %v", net.blobShapes[0])
	}

	if err := model.Close(); err != nil || net.closed != 1 {
		t.Errorf("Close = %v, closed %d times", err, net.closed)
	}
}

func TestForward_EmptyFrame(t *testing.T) {
	net := &recordingNetwork{}
	model := &Model{net: net, outputLayers: []string{"yolo_82"}, inputSize: image.Pt(416, 416)}

	empty := gocv.NewMat()
	defer empty.Close()

	if _, err := model.Forward(empty); err == nil {
		t.Error("Expected error for empty frame")
	}
	if len(net.calls) != 0 {
		t.Errorf("Network called %d times for an empty frame", len(net.calls))
	}
}
