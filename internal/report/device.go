package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/fxnlabs/gemmbench/internal/device"
	"gopkg.in/yaml.v3"
)

// DeviceReport describes the compute device and which backends can run on it.
type DeviceReport struct {
	Device      device.Info     `json:"device" yaml:"device"`
	CPUFeatures []string        `json:"cpuFeatures,omitempty" yaml:"cpuFeatures,omitempty"`
	Backends    []BackendStatus `json:"backends" yaml:"backends"`
}

type BackendStatus struct {
	Name  string `json:"name" yaml:"name"`
	Kind  string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Ready bool   `json:"ready" yaml:"ready"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// WriteDevice renders r in the given report format.
func WriteDevice(w io.Writer, format string, r DeviceReport) error {
	switch strings.ToLower(format) {
	case "", "table":
		_, err := io.WriteString(w, deviceTable(r))
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown report format %q, want one of %v", format, Formats)
	}
}

func deviceTable(r DeviceReport) string {
	props := newTable().
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return rightStyle
			}
			return cellStyle
		})
	props.Row("Device", r.Device.Name)
	props.Row("Total memory", humanize.IBytes(uint64(r.Device.TotalMemory)))
	props.Row("Available memory", humanize.IBytes(uint64(r.Device.AvailableMemory)))
	props.Row("Compute capability", r.Device.ComputeCapability)
	props.Row("Driver", r.Device.DriverVersion)
	if r.Device.RuntimeVersion != "" {
		props.Row("Runtime", r.Device.RuntimeVersion)
	}
	if len(r.CPUFeatures) > 0 {
		props.Row("CPU features", strings.Join(r.CPUFeatures, " "))
	}

	backends := newTable("Backend", "Kind", "Status").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, b := range r.Backends {
		status := "ready"
		if !b.Ready {
			status = failStyle.Render(b.Error)
		}
		backends.Row(b.Name, b.Kind, status)
	}
	return props.String() + "\n" + backends.String() + "\n"
}
