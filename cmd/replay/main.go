// replay retargets a recorded landmark stream (JSONL pose messages) onto a
// rig offline and bakes the result into an action.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/cheggaaa/pb/v3"

	mlog "github.com/teslashibe/go-mocap/internal/log"
	"github.com/teslashibe/go-mocap/pkg/capture"
	"github.com/teslashibe/go-mocap/pkg/mapping"
	"github.com/teslashibe/go-mocap/pkg/perception"
	"github.com/teslashibe/go-mocap/pkg/record"
	"github.com/teslashibe/go-mocap/pkg/retarget"
	"github.com/teslashibe/go-mocap/pkg/skeleton"
)

const barTemplate = `{{ string . "prefix" }} {{counters . "%s/%s" "%s/?"}} {{bar . }} {{percent . "%.01f%%" "?"}} {{etime . "%s elapsed"}}`

func main() {
	in := flag.String("in", "", "Landmark recording (JSONL of pose messages)")
	out := flag.String("out", "", "Write the baked action as JSON (default: print a summary)")
	name := flag.String("name", "", "Action name (default Capture_<timestamp>)")
	settingsPath := flag.String("settings", "", "Settings file (YAML); defaults when empty")
	preset := flag.String("preset", "", "Filter preset: default, smooth, responsive")
	mapPath := flag.String("mapping", "", "Mapping file (JSON); auto-map when empty")
	level := flag.String("log-level", "warn", "Log level")
	flag.Parse()

	mlog.Init(*level)
	if *in == "" {
		log.Fatal("❌ -in is required")
	}

	settings := capture.DefaultSettings()
	if *settingsPath != "" {
		s, err := capture.LoadSettings(*settingsPath)
		if err != nil {
			log.Fatalf("❌ Settings error: %v", err)
		}
		settings = s
	}
	if *preset != "" {
		p, ok := capture.Preset(*preset)
		if !ok {
			log.Fatalf("❌ Unknown preset %q", *preset)
		}
		settings.Filter = p.Filter
	}

	rig := skeleton.NewRig(settings.Rig.Name, settings.RigBones())
	entries, err := loadEntries(*mapPath, rig.BoneNames())
	if err != nil {
		log.Fatalf("❌ Mapping error: %v", err)
	}

	session, err := retarget.NewSession(entries, rig, settings.Options())
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	fmt.Printf("🦴 Rig %q: %d mapped bones\n", rig.Name(), len(session.Bones()))

	total, err := perception.CountPoses(*in)
	if err != nil {
		log.Fatalf("❌ Replay error: %v", err)
	}
	rp, err := perception.OpenReplay(*in)
	if err != nil {
		log.Fatalf("❌ Replay error: %v", err)
	}
	defer rp.Close()

	take := record.NewTake(session.Stats().TimeIndex)
	session.StartRecording(take)

	bar := pb.ProgressBarTemplate(barTemplate).Start(total)
	bar.Set("prefix", "🎬 Retargeting")
	for {
		lms, ok, err := rp.Next()
		if err != nil {
			bar.Finish()
			log.Fatalf("❌ Replay error: %v", err)
		}
		if !ok {
			break
		}
		if lms == nil {
			session.MarkDropped()
		} else {
			session.Step(lms)
		}
		bar.Increment()
	}
	bar.Finish()

	recorded := session.StopRecording()
	action, err := take.Bake(*name, recorded)
	if err != nil {
		log.Fatalf("❌ Bake failed: %v", err)
	}

	stats := session.Stats()
	fmt.Printf("✅ Baked %q: frames %d-%d (%d poses, %d dropped)\n",
		action.Name, action.FrameStart, action.FrameEnd, stats.Frames, stats.DroppedFrames)

	if *out != "" {
		data, err := json.MarshalIndent(action, "", "  ")
		if err != nil {
			log.Fatalf("❌ Encode failed: %v", err)
		}
		if err := os.WriteFile(*out, data, 0644); err != nil {
			log.Fatalf("❌ Write failed: %v", err)
		}
		fmt.Printf("💾 Wrote %s\n", *out)
		return
	}

	bones := make([]string, 0, len(action.Tracks))
	for b := range action.Tracks {
		bones = append(bones, b)
	}
	sort.Strings(bones)
	for _, b := range bones {
		fmt.Printf("   %-20s %d keys\n", b, len(action.Tracks[b]))
	}
}

// loadEntries reads a mapping file, or auto-maps the rig when path is empty.
func loadEntries(path string, bones []string) ([]mapping.Entry, error) {
	if path != "" {
		return mapping.Load(path)
	}
	return mapping.AutoMap(bones), nil
}
