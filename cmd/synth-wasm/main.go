//go:build js && wasm

package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"syscall/js"
	"unsafe"

	"github.com/cwbudde/algo-synth/asset"
	"github.com/cwbudde/algo-synth/engine"
	"github.com/cwbudde/algo-synth/preset"
	"github.com/cwbudde/algo-synth/protocol"
	"github.com/cwbudde/algo-synth/realtime"
)

// maxFrames is the render quantum of an AudioWorklet.
const maxFrames = 128

var (
	host         *engine.Host
	callback     *realtime.Callback
	outputBuffer []float32
	cancelWorker context.CancelFunc

	// blobs holds WAV files handed over from JavaScript, keyed by the path
	// presets refer to them by.
	blobsMu sync.Mutex
	blobs   = map[string][]byte{}
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	js.Global().Set("wasmInit", js.FuncOf(wasmInit))
	js.Global().Set("wasmLoadFile", js.FuncOf(wasmLoadFile))
	js.Global().Set("wasmNoteOn", js.FuncOf(wasmNoteOn))
	js.Global().Set("wasmNoteOff", js.FuncOf(wasmNoteOff))
	js.Global().Set("wasmSetSustain", js.FuncOf(wasmSetSustain))
	js.Global().Set("wasmSetParameter", js.FuncOf(wasmSetParameter))
	js.Global().Set("wasmPanic", js.FuncOf(wasmPanic))
	js.Global().Set("wasmProcessBlock", js.FuncOf(wasmProcessBlock))
	js.Global().Set("wasmGetMemoryBuffer", js.FuncOf(wasmGetMemoryBuffer))

	println("WASM synth module loaded")
	select {}
}

func loadBlob(path string, sampleRate int) (*asset.Sample, error) {
	blobsMu.Lock()
	data, ok := blobs[path]
	blobsMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("file not loaded: %s", path)
	}
	return asset.DecodeWAV(bytes.NewReader(data), path, sampleRate)
}

// wasmInit(sampleRate, presetJSON?) builds the engine. Files named by the
// preset must be registered with wasmLoadFile first.
func wasmInit(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return "missing sample rate"
	}
	cfg := engine.NewDefaultConfig()
	if len(args) > 1 && args[1].Type() == js.TypeString && args[1].String() != "" {
		loaded, err := preset.ParseJSON([]byte(args[1].String()))
		if err != nil {
			return err.Error()
		}
		cfg = *loaded
	}
	cfg.SampleRate = float64(args[0].Int())
	cfg.MaxBlock = maxFrames

	if cancelWorker != nil {
		cancelWorker()
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancelWorker = cancel
	worker := asset.NewWorker(asset.Config{
		SampleRate:    cfg.SampleRate,
		PartitionSize: cfg.PartitionSize,
		Requests:      cfg.AssetRequests,
		Responses:     cfg.AssetResponses,
	})
	worker.SetLoader(loadBlob)
	go func() { _ = worker.Run(ctx) }()

	h, err := engine.NewHost(cfg, worker, slog.Default())
	if err != nil {
		return err.Error()
	}
	host = h
	callback = realtime.NewCallback(h.Shared())
	outputBuffer = make([]float32, maxFrames*2)

	println("Synth initialized at", args[0].Int(), "Hz with", len(cfg.Channels), "channels")
	return nil
}

// wasmLoadFile(path, arrayBuffer) registers WAV data under path.
func wasmLoadFile(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	path := args[0].String()
	length := args[1].Get("byteLength").Int()
	if length == 0 {
		println("file is empty:", path)
		return nil
	}
	data := make([]byte, length)
	js.CopyBytesToGo(data, js.Global().Get("Uint8Array").New(args[1]))

	blobsMu.Lock()
	blobs[path] = data
	blobsMu.Unlock()
	println("file loaded:", path, length, "bytes")
	return nil
}

func noteToken(channel, key int) protocol.Token {
	return protocol.Token(channel)<<8 | protocol.Token(key&0xff)
}

// wasmNoteOn(channel, note, velocity) with velocity 0-127.
func wasmNoteOn(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 || host == nil {
		return nil
	}
	ch, note := args[0].Int(), args[1].Int()
	_ = host.NoteOn(ch, float32(note), float32(args[2].Int())/127, noteToken(ch, note))
	return nil
}

func wasmNoteOff(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || host == nil {
		return nil
	}
	ch, note := args[0].Int(), args[1].Int()
	_ = host.NoteOff(ch, noteToken(ch, note))
	return nil
}

func wasmSetSustain(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || host == nil {
		return nil
	}
	_ = host.Sustain(args[0].Int(), args[1].Bool())
	return nil
}

// wasmSetParameter(channel, device, param, value)
func wasmSetParameter(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 || host == nil {
		return nil
	}
	_ = host.Parameter(args[0].Int(), args[1].Int(), args[2].Int(), float32(args[3].Float()))
	return nil
}

func wasmPanic(this js.Value, args []js.Value) interface{} {
	if host == nil {
		return nil
	}
	_ = host.Panic()
	return nil
}

// wasmProcessBlock(frames) renders up to 128 stereo frames and returns a
// pointer to the interleaved output in linear memory.
func wasmProcessBlock(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || host == nil {
		return 0
	}
	n := min(max(args[0].Int(), 0), maxFrames)
	callback.Fill(outputBuffer[:2*n])

	// Housekeeping runs on the same thread here; there is no other host
	// goroutine to do it.
	host.Service()

	ptr := &outputBuffer[0]
	return js.ValueOf(uintptr(unsafe.Pointer(ptr)))
}

func wasmGetMemoryBuffer(this js.Value, args []js.Value) interface{} {
	return js.Global().Get("Go").Get("_inst").Get("exports").Get("mem").Get("buffer")
}
