package audio

import (
	"context"
	"errors"
	"time"
)

// Sequence plays paths one after another, starting each clip gap after the previous
// one started. The first clip is started before Sequence returns and its start error,
// if any, is returned; the remaining clips play in the background regardless. The
// handle completes when the last clip finishes, or when ctx is cancelled between
// clips.
func Sequence(ctx context.Context, player Player, gap time.Duration, paths ...string) (*Playback, error) {
	if len(paths) == 0 {
		return Finished("", nil), nil
	}
	seq := newPlayback(paths[len(paths)-1])

	current, firstErr := player.Play(paths[0])
	errs := []error{}
	if firstErr != nil {
		errs = append(errs, firstErr)
	}

	go func() {
		for _, path := range paths[1:] {
			if gap > 0 {
				timer := time.NewTimer(gap)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					seq.finish(errors.Join(append(errs, ctx.Err())...))
					return
				}
			}
			pb, err := player.Play(path)
			if err != nil {
				errs = append(errs, err)
				current = nil
				continue
			}
			current = pb
		}
		if current != nil {
			if err := current.Wait(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		seq.finish(errors.Join(errs...))
	}()
	return seq, firstErr
}
