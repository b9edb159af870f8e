package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted is returned when the user interrupts a prompt.
var ErrAborted = errors.New("prompt: aborted")

// InputConfig describes a free text question.
type InputConfig struct {
	Message   string
	Default   string
	Validator func(string) error
}

// SelectConfig describes a choice between Options. Default is an index into
// Options, or -1 for none.
type SelectConfig struct {
	Message string
	Options []string
	Default int
}

// Driver asks questions. Select returns an index into the options and
// MultiSelect the ascending indices picked.
type Driver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Password(ctx context.Context, cfg InputConfig) (string, error)
	Select(ctx context.Context, cfg SelectConfig) (int, error)
	MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error)
	Info(ctx context.Context, msg string) error
}

// SurveyDriver asks on a terminal through survey.
type SurveyDriver struct {
	stdio terminal.Stdio
}

var _ Driver = (*SurveyDriver)(nil)

// NewSurveyDriver asks on the process standard streams.
func NewSurveyDriver() *SurveyDriver {
	return NewSurveyDriverWithStdio(terminal.Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
}

// NewSurveyDriverWithStdio asks on the given terminal streams.
func NewSurveyDriverWithStdio(stdio terminal.Stdio) *SurveyDriver {
	return &SurveyDriver{stdio: stdio}
}

func (d *SurveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	var answer string
	err := d.askOne(ctx, &survey.Input{Message: cfg.Message, Default: cfg.Default}, &answer, cfg.Validator)
	return answer, err
}

// Password does not echo and ignores cfg.Default.
func (d *SurveyDriver) Password(ctx context.Context, cfg InputConfig) (string, error) {
	var answer string
	err := d.askOne(ctx, &survey.Password{Message: cfg.Message}, &answer, cfg.Validator)
	return answer, err
}

func (d *SurveyDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	q := &survey.Select{Message: cfg.Message, Options: cfg.Options}
	if cfg.Default >= 0 && cfg.Default < len(cfg.Options) {
		q.Default = cfg.Options[cfg.Default]
	}
	var answer string
	if err := d.askOne(ctx, q, &answer, nil); err != nil {
		return -1, err
	}
	return slices.Index(cfg.Options, answer), nil
}

func (d *SurveyDriver) MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error) {
	var answer []string
	if err := d.askOne(ctx, &survey.MultiSelect{Message: cfg.Message, Options: cfg.Options}, &answer, nil); err != nil {
		return nil, err
	}
	picked := make([]int, 0, len(answer))
	for i, opt := range cfg.Options {
		if slices.Contains(answer, opt) {
			picked = append(picked, i)
		}
	}
	return picked, nil
}

func (d *SurveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.stdio.Out, msg)
	return err
}

func (d *SurveyDriver) askOne(ctx context.Context, q survey.Prompt, answer any, validate func(string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := []survey.AskOpt{survey.WithStdio(d.stdio.In, d.stdio.Out, d.stdio.Err)}
	if validate != nil {
		opts = append(opts, survey.WithValidator(func(v any) error {
			s, _ := v.(string)
			return validate(s)
		}))
	}
	err := survey.AskOne(q, answer, opts...)
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
