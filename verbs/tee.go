package verbs

import (
	"os"
	"os/exec"

	"github.com/google/shlex"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/output"
	"github.com/carlodf/mlrq/recctx"
	"github.com/carlodf/mlrq/stream"
)

// TeeTarget is the side destination tee writes a copy of each record to,
// spec.md §4.G's terminal-emit "tee (write a copy of each record to a
// side output, pass the record through unchanged)". A target is either a
// plain file path or, when piped is set, a shell command line whose
// stdin receives the tee'd records -- the piped form is grounded on the
// teacher corpus's only shell-command-line construction, aretext's
// RunShellCmd (app/shellcmd.go), which tokenizes the command with
// google/shlex before handing it to os/exec.
type TeeTarget struct {
	Path  string
	Piped bool
}

// Tee writes every record through newWriter(sink) to the target (in
// addition to passing it downstream unchanged), opening the destination
// lazily on the first record and closing it on end-of-stream. Errors
// opening or writing to the target are logged (via logrus, matching the
// rest of the module's ambient logging) rather than aborting the main
// stream, since a side output failing is not itself a parse error in the
// primary record flow.
func Tee(target TeeTarget, newWriter func(w writerSink) output.Writer) stream.Verb {
	var (
		w       output.Writer
		cmd     *exec.Cmd
		sinkErr error
		opened  bool
	)

	open := func() {
		opened = true
		if target.Piped {
			argv, err := shlex.Split(target.Path)
			if err != nil || len(argv) == 0 {
				sinkErr = errors.Wrapf(err, "tee: shlex.Split(%q)", target.Path)
				logrus.WithError(sinkErr).Error("tee: failed to parse piped command")
				return
			}
			c := exec.Command(argv[0], argv[1:]...)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			stdin, err := c.StdinPipe()
			if err != nil {
				sinkErr = errors.Wrapf(err, "tee: Cmd.StdinPipe")
				logrus.WithError(sinkErr).Error("tee: failed to open pipe to command")
				return
			}
			if err := c.Start(); err != nil {
				sinkErr = errors.Wrapf(err, "tee: Cmd.Start(%q)", target.Path)
				logrus.WithError(sinkErr).Error("tee: failed to start piped command")
				return
			}
			cmd = c
			w = newWriter(stdin)
			return
		}
		f, err := os.Create(target.Path)
		if err != nil {
			sinkErr = errors.Wrapf(err, "tee: os.Create(%q)", target.Path)
			logrus.WithError(sinkErr).Error("tee: failed to open output file")
			return
		}
		w = newWriter(f)
	}

	closeSink := func() {
		if w != nil {
			if err := w.Close(); err != nil {
				logrus.WithError(err).Error("tee: error closing side output")
			}
		}
		if cmd != nil {
			if err := cmd.Wait(); err != nil {
				logrus.WithError(err).Error("tee: piped command exited with error")
			}
		}
	}

	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			closeSink()
			return []*lrec.Record{nil}
		}
		if !opened {
			open()
		}
		if w != nil {
			if err := w.Write(rec, ctx); err != nil {
				logrus.WithError(err).Error("tee: error writing to side output")
			}
		}
		return []*lrec.Record{rec}
	})
}

// writerSink is the minimal destination output.Writer constructors need:
// an io.Writer, satisfied by both *os.File and the stdin pipe of a piped
// command.
type writerSink interface {
	Write(p []byte) (n int, err error)
}
