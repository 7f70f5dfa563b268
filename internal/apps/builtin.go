package apps

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

const (
	Terminal           = "terminal"
	Finder             = "finder"
	Chrome             = "chrome"
	AboutThisMac       = "aboutThisMac"
	AboutThisDeveloper = "aboutThisDeveloper"
)

// Builtin returns a registry with the stock desktop applications.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register(Terminal, func() View { return &terminalView{started: time.Now()} })
	r.Register(Finder, func() View { return finderView{} })
	r.Register(Chrome, func() View { return chromeView{url: "https://www.google.com"} })
	r.Register(AboutThisMac, func() View { return &aboutThisMacView{} })
	r.Register(AboutThisDeveloper, func() View { return aboutThisDeveloperView{} })
	return r
}

type terminalView struct {
	started time.Time
}

func (*terminalView) Title() string { return "Terminal" }

func (v *terminalView) Render(width, height int) string {
	lines := []string{
		"Last login: " + v.started.Format("Mon Jan _2 15:04:05") + " on ttys000",
		"guest@deskos ~ % help",
		"available commands: ls, cd, cat, clear, help",
		"guest@deskos ~ % ",
	}
	return Fit(lines, width, height)
}

type finderView struct{}

func (finderView) Title() string { return "Finder" }

func (finderView) Render(width, height int) string {
	entries := []struct {
		name, kind string
	}{
		{"Applications", "Folder"},
		{"Desktop", "Folder"},
		{"Documents", "Folder"},
		{"Downloads", "Folder"},
		{"resume.pdf", "PDF document"},
		{"notes.txt", "Plain text"},
	}
	lines := []string{fmt.Sprintf("%-24s %s", "Name", "Kind")}
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%-24s %s", e.name, e.kind))
	}
	return Fit(lines, width, height)
}

type chromeView struct {
	url string
}

func (chromeView) Title() string { return "Chrome" }

func (v chromeView) Render(width, height int) string {
	bar := "◀ ▶ ⟳  " + v.url
	lines := []string{bar, strings.Repeat("─", max(width, 0)), "", "Search Google or type a URL"}
	return Fit(lines, width, height)
}

// aboutThisMacView reports the host the desktop is running on. Probing is
// done once per view since host facts do not change while it is open.
type aboutThisMacView struct {
	lines []string
}

func (*aboutThisMacView) Title() string { return "About This Mac" }

func (v *aboutThisMacView) Render(width, height int) string {
	if v.lines == nil {
		v.lines = probeHost()
	}
	return Fit(v.lines, width, height)
}

func probeHost() []string {
	lines := []string{}
	if info, err := host.Info(); err == nil {
		lines = append(lines,
			fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion),
			"Host      "+info.Hostname,
			"Kernel    "+info.KernelVersion,
			"Uptime    "+(time.Duration(info.Uptime)*time.Second).String(),
		)
	} else {
		lines = append(lines, runtime.GOOS+"/"+runtime.GOARCH)
	}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		cores, _ := cpu.Counts(true)
		lines = append(lines, fmt.Sprintf("Processor %s (%d threads)", infos[0].ModelName, cores))
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		lines = append(lines, fmt.Sprintf("Memory    %.1f GB", float64(vm.Total)/(1<<30)))
	}
	return lines
}

type aboutThisDeveloperView struct{}

func (aboutThisDeveloperView) Title() string { return "About This Developer" }

func (aboutThisDeveloperView) Render(width, height int) string {
	lines := []string{
		"Hi, I build terminal software.",
		"",
		"This desktop runs entirely in your terminal:",
		"drag windows by their title bar, use the dock",
		"to open and restore apps.",
	}
	return Fit(lines, width, height)
}
