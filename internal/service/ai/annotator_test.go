package ai

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
	"weaponcam/internal/apperr"
	"weaponcam/internal/logger"

	"gocv.io/x/gocv"
)

func grayFrame(t *testing.T, rows, cols int) gocv.Mat {
	t.Helper()
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(64, 64, 64, 0), rows, cols, gocv.MatTypeCV8UC3)
	if frame.Empty() {
		t.Fatal("Failed to create test frame")
	}
	return frame
}

func TestNewColorTable(t *testing.T) {
	a := NewColorTable(3, rand.New(rand.NewSource(7)))
	b := NewColorTable(3, rand.New(rand.NewSource(7)))

	if len(a) != 3 {
		t.Fatalf("Expected 3 colors, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("Expected identical colors for the same seed at %d: %v vs %v", i, a[i], b[i])
		}
	}
	if a.Color(4) != a[1] {
		t.Errorf("Expected class 4 to cycle to color 1")
	}
}

func TestClassCatalog_Label(t *testing.T) {
	classes := ClassCatalog{"Weapon"}
	if got := classes.Label(0); got != "Weapon" {
		t.Errorf("Expected Weapon, got %s", got)
	}
	if got := classes.Label(3); got != "unknown" {
		t.Errorf("Expected unknown, got %s", got)
	}
}

func TestAnnotator_Label(t *testing.T) {
	a := NewAnnotator(ClassCatalog{"Weapon"}, NewColorTable(1, rand.New(rand.NewSource(1))), logger.Discard())
	got := a.Label(Detection{ClassID: 0, Confidence: 0.876})
	if got != "Weapon 0.88" {
		t.Errorf("Expected 'Weapon 0.88', got %q", got)
	}
}

func TestAnnotate_NoDetectionsLeavesFrameUntouched(t *testing.T) {
	frame := grayFrame(t, 120, 160)
	defer frame.Close()

	encoder := Encoder{Quality: 90}
	before, err := encoder.Encode(frame)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	a := NewAnnotator(ClassCatalog{"Weapon"}, NewColorTable(1, rand.New(rand.NewSource(1))), logger.Discard())
	if err := a.Annotate(&frame, nil); err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	after, err := encoder.Encode(frame)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("Expected identical encoding when there is nothing to draw")
	}
}

func TestAnnotate_DrawsDetections(t *testing.T) {
	frame := grayFrame(t, 120, 160)
	defer frame.Close()
	original := frame.Clone()
	defer original.Close()

	colors := ColorTable{{R: 255, G: 0, B: 0}}
	var logs bytes.Buffer
	a := NewAnnotator(ClassCatalog{"Weapon"}, colors, logger.New(&logs, logger.LevelInfo))

	detections := []Detection{{Box: BoundingBox{X: 10, Y: 10, Width: 50, Height: 40}, ClassID: 0, Confidence: 0.9}}
	if err := a.Annotate(&frame, detections); err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(frame, original, &diff)
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(diff, &gray, gocv.ColorBGRToGray)
	if gocv.CountNonZero(gray) == 0 {
		t.Error("Expected the frame to be modified in place")
	}
	if !bytes.Contains(logs.Bytes(), []byte("Detected Weapon with confidence 0.90")) {
		t.Errorf("Expected a log line per detection, got: %s", logs.String())
	}
}

func TestEncode_RoundTripKeepsDimensions(t *testing.T) {
	frame := grayFrame(t, 48, 64)
	defer frame.Close()

	data, err := Encoder{Quality: 95}.Encode(frame)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		t.Fatalf("IMDecode failed: %v", err)
	}
	defer decoded.Close()

	if decoded.Rows() != 48 || decoded.Cols() != 64 {
		t.Errorf("Expected 64x48, got %dx%d", decoded.Cols(), decoded.Rows())
	}
}

func TestEncode_EmptyFrame(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()

	_, err := Encoder{}.Encode(empty)
	if !errors.Is(err, apperr.ErrEncode) {
		t.Errorf("Expected ErrEncode, got %v", err)
	}
}
