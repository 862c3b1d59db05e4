package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	agentimport "github.com/MacJediWizard/availcheck/internal/import"
	"github.com/MacJediWizard/availcheck/internal/models"
)

// errQuit ends the interactive session.
var errQuit = errors.New("quit")

// prompter reads operator answers line by line.
type prompter struct {
	r *bufio.Reader
	w io.Writer
}

// ask prints prompt and returns the trimmed answer. It returns errQuit when
// the input is exhausted.
func (p *prompter) ask(prompt string) (string, error) {
	fmt.Fprint(p.w, prompt)
	line, err := p.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", errQuit
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// askPath asks for an existing file. An empty answer or cancel returns "".
func (p *prompter) askPath(prompt string) (string, error) {
	for {
		answer, err := p.ask(prompt)
		if err != nil {
			return "", err
		}
		switch strings.ToLower(answer) {
		case "", "cancel", "quit", "exit":
			return "", nil
		}

		if _, err := os.Stat(answer); err == nil {
			return answer, nil
		}
		fmt.Fprintf(p.w, "Error: File not found: %s\n", answer)

		retry, err := p.ask("Try again? (y/n): ")
		if err != nil {
			return "", err
		}
		if strings.ToLower(retry) != "y" {
			return "", nil
		}
	}
}

func (p *prompter) pause() error {
	_, err := p.ask("\nPress Enter to continue...")
	return err
}

// runMenu runs the interactive session until the operator exits or input ends.
func (a *app) runMenu(ctx context.Context) error {
	p := &prompter{r: bufio.NewReader(a.in), w: a.out}

	if err := a.showInfo(ctx); err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
	}
	fmt.Fprintln(a.out, "\nWelcome to availcheck.")
	fmt.Fprintln(a.out, "Agent availability is calculated per domain and operating system.")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		printMenu(a.out)
		choice, err := p.ask("\nSelect an option [1-5]: ")
		if err != nil {
			return quitOrErr(err)
		}

		switch choice {
		case "1":
			err = a.menuLoadBaseline(ctx, p, models.OSWindows)
		case "2":
			err = a.menuLoadBaseline(ctx, p, models.OSLinux)
		case "3":
			err = a.menuCheck(ctx, p)
		case "4":
			if infoErr := a.showInfo(ctx); infoErr != nil {
				fmt.Fprintf(a.out, "Error: %v\n", infoErr)
			}
			err = p.pause()
		case "5":
			fmt.Fprintln(a.out, "\nGoodbye!")
			return nil
		default:
			fmt.Fprintln(a.out, "\nInvalid option. Please select 1-5.")
			err = p.pause()
		}
		if err != nil {
			return quitOrErr(err)
		}
	}
}

func printMenu(w io.Writer) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\n%sAGENT AVAILABILITY SYSTEM\n%s\n", rule, strings.Repeat(" ", 17), rule)
	fmt.Fprintln(w, "\nMain Menu:")
	fmt.Fprintln(w, "\t[1] Load Windows Baseline")
	fmt.Fprintln(w, "\t[2] Load Linux Baseline")
	fmt.Fprintln(w, "\t[3] Check Availability & Generate Report")
	fmt.Fprintln(w, "\t[4] View Database Info")
	fmt.Fprintln(w, "\t[5] Exit")
	fmt.Fprintln(w, strings.Repeat("-", 60))
}

func (a *app) menuLoadBaseline(ctx context.Context, p *prompter, platform models.OperatingSystem) error {
	fmt.Fprintf(a.out, "\n--- Load %s Baseline ---\n", platform)
	fmt.Fprintf(a.out, "Required columns: %s\n", strings.Join(agentimport.CSVTemplateHeader(false), ", "))

	path, err := p.askPath(fmt.Sprintf("Enter %s baseline CSV path (or 'cancel'): ", platform))
	if err != nil {
		return err
	}
	if path != "" {
		if err := a.loadBaseline(ctx, platform, path); err != nil {
			fmt.Fprintf(a.out, "Error: %v\n", err)
		}
	}
	return p.pause()
}

func (a *app) menuCheck(ctx context.Context, p *prompter) error {
	fmt.Fprintln(a.out, "\n--- Check Availability & Generate Report ---")
	fmt.Fprintf(a.out, "Required columns: %s\n", strings.Join(agentimport.CSVTemplateHeader(true), ", "))

	feeds := make(map[models.OperatingSystem]string)
	for _, platform := range models.SupportedOperatingSystems {
		path, err := p.askPath(fmt.Sprintf("Enter %s availability CSV path (or 'cancel' if no %s agents): ", platform, platform))
		if err != nil {
			return err
		}
		if path != "" {
			feeds[platform] = path
		}
	}

	if len(feeds) == 0 {
		fmt.Fprintln(a.out, "No CSV files provided. Operation cancelled.")
		return p.pause()
	}

	name, err := p.ask(fmt.Sprintf("\nEnter output report filename base (default: %s): ", a.cfg.ReportName))
	if err != nil {
		return err
	}

	if err := a.runCheck(ctx, checkOptions{feeds: feeds, outputBase: name}); err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
	}
	return p.pause()
}

func quitOrErr(err error) error {
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}
