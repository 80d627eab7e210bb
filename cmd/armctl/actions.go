package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/armctl/pkg/preset"
	"github.com/gwillem/armctl/pkg/robot"
	"github.com/gwillem/armctl/pkg/store"
)

type ActionsCommand struct {
	Clear  bool   `long:"clear" description:"Erase the stored action group"`
	Yes    bool   `short:"y" long:"yes" description:"Do not ask before erasing"`
	Export string `long:"export" value-name:"PATH" description:"Add the stored group to a preset YAML library"`
	Name   string `long:"name" default:"recorded" description:"Preset group name used by --export"`
	HoldMs int    `long:"hold-ms" default:"1000" description:"Hold per pose used by --export"`
}

func (c *ActionsCommand) Execute(args []string) error {
	cfg := robot.DefaultConfig()
	if robot.ConfigExistsAt(opts.Config) {
		loaded, err := robot.LoadConfigFrom(opts.Config)
		if err != nil {
			return fmt.Errorf("load %s: %w", opts.Config, err)
		}
		cfg = loaded
	}

	dev, err := store.OpenFile(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open action store: %w", err)
	}
	defer dev.Close()
	st := store.New(dev)

	if c.Clear {
		return c.clear(st, cfg.Store.Path)
	}

	records, err := st.Load()
	var corrupt *store.CorruptStoreError
	switch {
	case errors.Is(err, store.ErrNoSignature):
		fmt.Printf("No action group stored in %s\n", cfg.Store.Path)
		return nil
	case errors.As(err, &corrupt):
		fmt.Fprintf(os.Stderr, "Action store %s is unreadable: %s\n", cfg.Store.Path, corrupt.Reason)
		return nil
	case err != nil:
		return err
	}

	if c.Export != "" {
		return c.export(records)
	}

	fmt.Println(headerStyle.Render("Stored action group"))
	fmt.Println(dimStyle.Render(fmt.Sprintf("%s, %d of %d poses", cfg.Store.Path, len(records), store.Capacity)))
	fmt.Println()
	fmt.Println(renderRecords(records))
	return nil
}

func (c *ActionsCommand) clear(st *store.Store, path string) error {
	if !c.Yes {
		var ok bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Erase the action group in %s?", path)).
					Affirmative("Erase").
					Negative("Keep").
					Value(&ok),
			),
		)
		if err := form.Run(); err != nil || !ok {
			fmt.Println("Nothing erased.")
			return nil
		}
	}
	if err := st.Erase(); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Action group erased."))
	return nil
}

func (c *ActionsCommand) export(records []store.ActionRecord) error {
	lib := &preset.Library{}
	if _, err := os.Stat(c.Export); err == nil {
		existing, err := preset.Load(c.Export)
		if err != nil {
			return err
		}
		lib = existing
	}

	poses := make([]robot.Angles, len(records))
	for i, r := range records {
		poses[i] = r.Angles()
	}
	lib.Put(preset.GroupFrom(c.Name, poses, time.Duration(c.HoldMs)*time.Millisecond))

	if err := lib.Save(c.Export); err != nil {
		return fmt.Errorf("save %s: %w", c.Export, err)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("Exported %d poses as %q to %s", len(records), c.Name, c.Export)))
	return nil
}

func renderRecords(records []store.ActionRecord) string {
	headerCell := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	indexCell := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)

	headers := []string{"#"}
	for _, ch := range robot.AllChannels() {
		headers = append(headers, ch.String())
	}

	rows := make([][]string, 0, len(records))
	for i, r := range records {
		row := []string{strconv.Itoa(i + 1)}
		for _, deg := range r.Angles() {
			row = append(row, strconv.Itoa(deg))
		}
		rows = append(rows, row)
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerCell
			case col == 0:
				return indexCell
			default:
				return cell
			}
		}).
		Render()
}
