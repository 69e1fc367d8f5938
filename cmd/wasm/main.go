//go:build js && wasm

package main

import (
	"encoding/json"
	"strconv"
	"strings"
	"syscall/js"
	"time"

	"github.com/inamate/motion/internal/engine"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/keypath"
	"github.com/inamate/motion/internal/loader"
	"github.com/inamate/motion/internal/sample"
)

var eng *engine.Engine

func main() {
	eng = engine.New()

	motionEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	motionEngine.Set("loadComposition", js.FuncOf(loadComposition))
	motionEngine.Set("loadSampleComposition", js.FuncOf(loadSampleComposition))
	motionEngine.Set("setFrame", js.FuncOf(setFrame))
	motionEngine.Set("setProgress", js.FuncOf(setProgress))
	motionEngine.Set("play", js.FuncOf(play))
	motionEngine.Set("pause", js.FuncOf(pause))
	motionEngine.Set("resume", js.FuncOf(resume))
	motionEngine.Set("togglePlay", js.FuncOf(togglePlay))
	motionEngine.Set("setSpeed", js.FuncOf(setSpeed))
	motionEngine.Set("setRepeat", js.FuncOf(setRepeat))
	motionEngine.Set("setMinAndMaxFrames", js.FuncOf(setMinAndMaxFrames))
	motionEngine.Set("setMarker", js.FuncOf(setMarker))
	motionEngine.Set("setColor", js.FuncOf(setColor))
	motionEngine.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← engine) ---
	motionEngine.Set("render", js.FuncOf(render))
	motionEngine.Set("hitTest", js.FuncOf(hitTest))
	motionEngine.Set("resolveKeyPath", js.FuncOf(resolveKeyPath))
	motionEngine.Set("getPlaybackState", js.FuncOf(getPlaybackState))
	motionEngine.Set("getWarnings", js.FuncOf(getWarnings))
	motionEngine.Set("getSize", js.FuncOf(getSize))

	js.Global().Set("motionEngine", motionEngine)
	js.Global().Set("motionWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func ok() any { return js.ValueOf(map[string]any{"ok": true}) }

func fail(err error) any {
	return js.ValueOf(map[string]any{"error": err.Error()})
}

// --- Command Handlers ---

func loadComposition(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf(map[string]any{"error": "missing composition JSON"})
	}
	comp, err := loader.Parse([]byte(args[0].String()))
	if err != nil {
		return fail(err)
	}
	if err := eng.SetComposition(comp); err != nil {
		return fail(err)
	}
	return ok()
}

func loadSampleComposition(this js.Value, args []js.Value) any {
	comp, err := sample.Composition()
	if err != nil {
		return fail(err)
	}
	if err := eng.SetComposition(comp); err != nil {
		return fail(err)
	}
	return ok()
}

func setFrame(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	eng.SetFrame(args[0].Float())
	return nil
}

func setProgress(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	eng.SetProgress(args[0].Float())
	return nil
}

func play(this js.Value, args []js.Value) any {
	eng.Play()
	return nil
}

func pause(this js.Value, args []js.Value) any {
	eng.Pause()
	return nil
}

func resume(this js.Value, args []js.Value) any {
	eng.Resume()
	return nil
}

func togglePlay(this js.Value, args []js.Value) any {
	eng.TogglePlay()
	return nil
}

func setSpeed(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	eng.SetSpeed(args[0].Float())
	return nil
}

// setRepeat takes a count, -1 for forever, and "restart" or "reverse".
func setRepeat(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return nil
	}
	mode, valid := engine.ParseRepeatMode(args[1].String())
	if !valid {
		return js.ValueOf(map[string]any{"error": "unknown repeat mode"})
	}
	eng.SetRepeat(args[0].Int(), mode)
	return ok()
}

func setMinAndMaxFrames(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return nil
	}
	eng.SetMinAndMaxFrames(args[0].Float(), args[1].Float())
	return nil
}

func setMarker(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	if err := eng.SetMarker(args[0].String()); err != nil {
		return fail(err)
	}
	return ok()
}

// setColor overrides the fill color at a dotted key path with "#rrggbb".
func setColor(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return nil
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(args[1].String(), "#"), 16, 32)
	if err != nil {
		return fail(err)
	}
	c := geom.ARGB(0xff, uint8(v>>16), uint8(v>>8), uint8(v))
	kp := keypath.Parse(args[0].String())
	if err := engine.SetValueCallback(eng, kp, keypath.Color, keyframe.Constant(c)); err != nil {
		return fail(err)
	}
	return ok()
}

// tick advances playback by the elapsed milliseconds and reports whether
// the frame changed.
func tick(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	elapsed := time.Duration(args[0].Float() * float64(time.Millisecond))
	changed, err := eng.Tick(elapsed)
	if err != nil {
		return js.ValueOf(false)
	}
	return js.ValueOf(changed)
}

// --- Query Handlers ---

// render returns the draw commands of the current frame as JSON.
func render(this js.Value, args []js.Value) any {
	cmds, err := eng.Commands(eng.Progress())
	if err != nil {
		return js.ValueOf("[]")
	}
	out, err := engine.CommandsToJSON(cmds)
	if err != nil {
		return js.ValueOf("[]")
	}
	return js.ValueOf(out)
}

func hitTest(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	w, h := eng.Size()
	if len(args) >= 4 {
		w, h = args[2].Float(), args[3].Float()
	}
	name, err := eng.HitTest(args[0].Float(), args[1].Float(), w, h)
	if err != nil {
		return js.ValueOf("")
	}
	return js.ValueOf(name)
}

func resolveKeyPath(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("[]")
	}
	var out []string
	for _, kp := range eng.ResolveKeyPath(keypath.Parse(args[0].String())) {
		out = append(out, kp.String())
	}
	data, _ := json.Marshal(out)
	return js.ValueOf(string(data))
}

func getPlaybackState(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.PlaybackStateJSON())
}

func getWarnings(this js.Value, args []js.Value) any {
	data, _ := json.Marshal(eng.Warnings())
	return js.ValueOf(string(data))
}

func getSize(this js.Value, args []js.Value) any {
	w, h := eng.Size()
	return js.ValueOf(map[string]any{"width": w, "height": h})
}
