package scene

import (
	"context"
	"fmt"
	"time"

	"evedemo/internal/eve"
)

// Calibrator is what the interactive touch calibration needs on top of
// Controller.
type Calibrator interface {
	Controller
	CmdWriteOffset() (uint32, error)
	CalibrationResult(at uint32) (uint32, error)
	TouchTransform() ([6]uint32, error)
}

var transformLabels = [6]string{
	"TOUCH_TRANSFORM_A:",
	"TOUCH_TRANSFORM_B:",
	"TOUCH_TRANSFORM_C:",
	"TOUCH_TRANSFORM_D:",
	"TOUCH_TRANSFORM_E:",
	"TOUCH_TRANSFORM_F:",
}

// Calibrate asks the user to tap the dots, then shows the resulting
// transform in hex for hold so it can be copied into a board preset.
// ok is false when the co-processor reported a failed calibration.
func Calibrate(ctx context.Context, ctl Calibrator, lay Layout, hold time.Duration) (m [6]uint32, ok bool, err error) {
	var l eve.CommandList
	l.DLStart()
	l.DL(eve.ClearColorRGB(colorBlack))
	l.DL(eve.Clear(eve.ClearAll))
	l.Text(lay.Width/2, 50, 26, eve.OptCenter, "Please tap on the dot.")
	slot := l.Calibrate()
	l.DL(eve.Display())
	l.Swap()

	start, err := ctl.CmdWriteOffset()
	if err != nil {
		return m, false, err
	}
	// No deadline beyond ctx: the user may take a while to tap.
	if err := ctl.Execute(ctx, &l); err != nil {
		return m, false, fmt.Errorf("scene: calibrate: %w", err)
	}
	result, err := ctl.CalibrationResult(start + uint32(slot))
	if err != nil {
		return m, false, err
	}
	m, err = ctl.TouchTransform()
	if err != nil {
		return m, false, err
	}

	l.Reset()
	l.DLStart()
	l.DL(eve.ClearColorRGB(colorBlack))
	l.DL(eve.Clear(eve.ClearAll))
	l.DL(eve.Tag(0))
	for i, label := range transformLabels {
		l.Text(5, int16(15+15*i), 26, 0, label)
	}
	l.SetBase(16)
	for i, v := range m {
		l.Number(310, int16(15+15*i), 26, eve.OptRightX|8, int32(v))
	}
	// The base is co-processor state; put it back for the frame counters.
	l.SetBase(10)
	l.DL(eve.Display())
	l.Swap()
	if err := ctl.Execute(ctx, &l); err != nil {
		return m, false, fmt.Errorf("scene: show calibration: %w", err)
	}

	select {
	case <-ctx.Done():
		return m, result != 0, ctx.Err()
	case <-time.After(hold):
	}
	return m, result != 0, nil
}
