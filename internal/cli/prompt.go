// Package cli collects run parameters, interactively in guided mode or
// from flags in manual mode.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"

	"github.com/marmstr93ng/PostcodeParse/internal/domain"
)

// Params are the four inputs every run needs.
type Params struct {
	SpacePath     string
	EventLocation string
	EventDate     string
	Districts     []domain.District
}

// Guided walks the user through parameter entry. savedSpacePath, when it
// still names an existing directory, is used without prompting, matching
// how the space path persists between runs. Invalid district input is
// reported and re-prompted rather than aborting.
func Guided(savedSpacePath string) (*Params, error) {
	p := &Params{}

	p.SpacePath = savedSpacePath
	if info, err := os.Stat(savedSpacePath); savedSpacePath == "" || err != nil || !info.IsDir() {
		if err := survey.AskOne(&survey.Input{
			Message: "What is the path to the shared space?",
		}, &p.SpacePath, survey.WithValidator(survey.Required)); err != nil {
			return nil, fmt.Errorf("guided entry: %w", err)
		}
	}

	if err := survey.AskOne(&survey.Input{
		Message: "What is the event location (e.g. Antrim, Dumfries, Exeter)?",
	}, &p.EventLocation, survey.WithValidator(survey.Required)); err != nil {
		return nil, fmt.Errorf("guided entry: %w", err)
	}

	if err := survey.AskOne(&survey.Select{
		Message: "When is the event planned to happen?",
		Options: MonthChoices(time.Now(), 12),
	}, &p.EventDate); err != nil {
		return nil, fmt.Errorf("guided entry: %w", err)
	}

	for {
		var raw string
		if err := survey.AskOne(&survey.Input{
			Message: "Enter all postcode districts to be extracted (separate them with commas e.g CV1,CV5):",
		}, &raw, survey.WithValidator(survey.Required)); err != nil {
			return nil, fmt.Errorf("guided entry: %w", err)
		}

		districts, err := domain.ParseDistricts(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v, try again\n", err)
			continue
		}
		p.Districts = districts
		break
	}

	return p, nil
}

// Manual validates flag-supplied parameters.
func Manual(spacePath, eventLocation, eventDate, districts string) (*Params, error) {
	if strings.TrimSpace(spacePath) == "" {
		return nil, fmt.Errorf("space path is required")
	}
	if strings.TrimSpace(eventLocation) == "" {
		return nil, fmt.Errorf("event location is required")
	}
	if err := ValidateMonthYear(eventDate); err != nil {
		return nil, err
	}

	parsed, err := domain.ParseDistricts(districts)
	if err != nil {
		return nil, err
	}

	return &Params{
		SpacePath:     spacePath,
		EventLocation: eventLocation,
		EventDate:     eventDate,
		Districts:     parsed,
	}, nil
}

// ConfirmUpdate asks whether the newly found release should be installed.
func ConfirmUpdate(latest string) (bool, error) {
	install := true
	err := survey.AskOne(&survey.Confirm{
		Message: fmt.Sprintf("Update %s available. Install now?", latest),
		Default: true,
	}, &install)
	if err != nil {
		return false, fmt.Errorf("update prompt: %w", err)
	}
	return install, nil
}

// PauseForExit keeps the console window open until the user acknowledges,
// so double-click launches do not vanish with their output.
func PauseForExit() {
	fmt.Print("Press Enter to exit...")
	_, _ = fmt.Scanln()
}
