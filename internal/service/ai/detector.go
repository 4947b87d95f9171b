package ai

import (
	"fmt"
	"image"
	"os"
	"weaponcam/internal/apperr"
	"weaponcam/internal/logger"

	"gocv.io/x/gocv"
)

// Output is the raw result of one output layer: Rows detection cells of Cols
// values each, laid out as [cx, cy, w, h, objectness, class scores...].
type Output struct {
	Rows int
	Cols int
	Data []float32
}

// Row returns the values of cell i.
func (o Output) Row(i int) []float32 {
	return o.Data[i*o.Cols : (i+1)*o.Cols]
}

// network runs one input blob through the named output layers.
type network interface {
	Forward(blob gocv.Mat, layers []string) []gocv.Mat
	Close() error
}

type dnnNetwork struct {
	net gocv.Net
}

func (n *dnnNetwork) Forward(blob gocv.Mat, layers []string) []gocv.Mat {
	n.net.SetInput(blob, "")
	return n.net.ForwardLayers(layers)
}

func (n *dnnNetwork) Close() error {
	return n.net.Close()
}

// Model is a loaded detection network together with its output layer names,
// resolved once at load time.
type Model struct {
	net          network
	outputLayers []string
	inputSize    image.Point
	logger       *logger.Logger
}

// LoadModel reads a darknet style network from a weights file and a topology file.
// Both artifacts must exist; any failure is reported as apperr.ErrModelLoad.
func LoadModel(weightsPath, configPath string, inputSize int, logger *logger.Logger) (*Model, error) {
	if _, err := os.Stat(weightsPath); err != nil {
		return nil, fmt.Errorf("%w: model files not found: weights %s: %v", apperr.ErrModelLoad, weightsPath, err)
	}
	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("%w: model files not found: config %s: %v", apperr.ErrModelLoad, configPath, err)
	}

	net := gocv.ReadNet(weightsPath, configPath)
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("%w: failed to read network from %s", apperr.ErrModelLoad, weightsPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("%w: failed to set preferable backend or target", apperr.ErrModelLoad)
	}

	outputLayers := resolveOutputLayers(net.GetLayerNames(), net.GetUnconnectedOutLayers())
	if len(outputLayers) == 0 {
		net.Close()
		return nil, fmt.Errorf("%w: network has no output layers", apperr.ErrModelLoad)
	}

	logger.Info("Detection network loaded from %s (outputs: %v)", weightsPath, outputLayers)

	return &Model{
		net:          &dnnNetwork{net: net},
		outputLayers: outputLayers,
		inputSize:    image.Pt(inputSize, inputSize),
		logger:       logger,
	}, nil
}

// resolveOutputLayers maps the 1-based ids of unconnected layers to their names.
func resolveOutputLayers(names []string, ids []int) []string {
	layers := make([]string, 0, len(ids))
	for _, id := range ids {
		if id-1 >= 0 && id-1 < len(names) {
			layers = append(layers, names[id-1])
		}
	}
	return layers
}

// OutputLayers returns the resolved output layer names.
func (m *Model) OutputLayers() []string {
	return m.outputLayers
}

// Forward runs one frame through the network: resize to the input size, scale by
// 1/255, zero mean, swap R and B, no crop.
func (m *Model) Forward(frame gocv.Mat) ([]Output, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("forward: empty frame")
	}

	blob := gocv.BlobFromImage(frame, 1.0/255.0, m.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	blobs := m.net.Forward(blob, m.outputLayers)
	defer func() {
		for i := range blobs {
			blobs[i].Close()
		}
	}()

	outputs := make([]Output, 0, len(blobs))
	for i := range blobs {
		data, err := blobs[i].DataPtrFloat32()
		if err != nil {
			return nil, fmt.Errorf("forward: layer %s: %w", m.outputLayers[i], err)
		}
		out := Output{
			Rows: blobs[i].Rows(),
			Cols: blobs[i].Cols(),
			Data: make([]float32, len(data)),
		}
		copy(out.Data, data)
		outputs = append(outputs, out)
	}

	return outputs, nil
}

// Close releases the network.
func (m *Model) Close() error {
	return m.net.Close()
}
