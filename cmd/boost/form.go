package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/jamesainslie/boost/pkg/boost/gateway"
	"github.com/jamesainslie/boost/pkg/boost/profile"
)

// profileForm holds the string state of the interactive profile editor.
type profileForm struct {
	Name     string
	Main     string
	Priority string
	Subs     string
}

func newProfileForm(f profile.Fields) *profileForm {
	subs := make([]string, len(f.SubProcesses))
	for i, s := range f.SubProcesses {
		subs[i] = s.Name + ":" + s.Priority.String()
	}
	return &profileForm{
		Name:     f.Name,
		Main:     f.MainProcess.Name,
		Priority: f.MainProcess.Priority.String(),
		Subs:     strings.Join(subs, ", "),
	}
}

func priorityOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(gateway.Priorities))
	for i, p := range gateway.Priorities {
		opts[i] = huh.NewOption(p.String(), p.String())
	}
	return opts
}

func required(what error) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return what
		}
		return nil
	}
}

func (pf *profileForm) form(title string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Game name").
				Value(&pf.Name).
				Placeholder("Valorant").
				Validate(required(profile.ErrNameRequired)),
			huh.NewInput().
				Title("Main process").
				Value(&pf.Main).
				Placeholder("VALORANT-Win64-Shipping.exe").
				Validate(required(profile.ErrMainProcessRequired)),
			huh.NewSelect[string]().
				Title("Priority").
				Options(priorityOptions()...).
				Value(&pf.Priority),
			huh.NewText().
				Title("Sub-processes").
				Description("name or name:priority, comma separated").
				Value(&pf.Subs).
				Placeholder("vgc.exe:AboveNormal, RiotClientServices.exe").
				Lines(3),
		).Title(title),
	).WithTheme(huh.ThemeDracula())
}

// fields converts the form state back into profile fields.
func (pf *profileForm) fields() (profile.Fields, error) {
	prio, err := gateway.ParsePriority(pf.Priority)
	if err != nil {
		return profile.Fields{}, err
	}
	subs, err := parseSubProcesses(strings.Split(pf.Subs, ","))
	if err != nil {
		return profile.Fields{}, err
	}
	return profile.Fields{
		Name:         pf.Name,
		MainProcess:  profile.Process{Name: pf.Main, Priority: prio},
		SubProcesses: subs,
	}.Normalize(), nil
}

// editProfile runs the form over start and returns the edited fields.
func editProfile(title string, start profile.Fields) (profile.Fields, error) {
	pf := newProfileForm(start)
	if err := pf.form(title).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return profile.Fields{}, errors.New("cancelled")
		}
		return profile.Fields{}, fmt.Errorf("profile form: %w", err)
	}
	return pf.fields()
}

// confirm asks a yes/no question.
func confirm(title string) (bool, error) {
	ok := false
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Delete").
		Negative("Cancel").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}
