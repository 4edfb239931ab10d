package ui

import (
	"fmt"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

type overviewData struct {
	Environment  string
	ObjectStore  string
	Bucket       string
	CronSpec     string
	Scheduled    bool
	CurrentFiles int
	WarehouseDir string
}

func overviewPage(d overviewData) Node {
	scheduleTone := "success"
	scheduleText := "enabled"
	if !d.Scheduled {
		scheduleTone = "attention"
		scheduleText = "disabled"
	}

	objectStore := Node(statusLabel("not configured", "attention"))
	if d.ObjectStore != "" {
		objectStore = statusLabel(d.ObjectStore, "accent")
	}

	return appPage("Overview", "home",
		Div(Class("grid"),
			Div(Class(cardClass()),
				H2(Text("Version store")),
				metaRow("Current files", fmt.Sprintf("%d", d.CurrentFiles)),
				P(A(Href("/ui/files"), Text("Browse files ->"))),
			),
			Div(Class(cardClass()),
				H2(Text("Schedule")),
				Div(Class("meta-row"), Strong(Text("Daily run: ")), statusLabel(scheduleText, scheduleTone)),
				metaRow("Cron", d.CronSpec),
			),
			Div(Class(cardClass()),
				H2(Text("Object store")),
				Div(Class("meta-row"), Strong(Text("Backend: ")), objectStore),
				metaRow("Bucket", d.Bucket),
			),
			Div(Class(cardClass()),
				H2(Text("Service")),
				metaRow("Environment", d.Environment),
				metaRow("Warehouse", d.WarehouseDir),
			),
		),
	)
}
