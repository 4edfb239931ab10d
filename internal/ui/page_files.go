package ui

import (
	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

type fileRowData struct {
	FileName    string
	VersionDate string
	Checksum    string
	ValidFrom   string
}

func filesListPage(rows []fileRowData) Node {
	tableRows := make([]Node, 0, len(rows))
	for i := range rows {
		row := rows[i]
		tableRows = append(tableRows, Tr(
			data.Show(containsExpr(row.FileName+" "+row.VersionDate)),
			Td(A(Href("/ui/files/"+row.FileName), Text(row.FileName))),
			Td(Text(row.VersionDate)),
			Td(Code(Text(shortChecksum(row.Checksum)))),
			Td(Text(row.ValidFrom)),
			Td(statusLabel("current", "success")),
		))
	}

	tableNode := Node(emptyStateCard("No files ingested yet. Trigger a run to populate the store."))
	if len(tableRows) > 0 {
		tableNode = Div(Class(cardClass("table-wrap")),
			Table(Class("data-table"),
				THead(Tr(Th(Text("File")), Th(Text("Version date")), Th(Text("Checksum")), Th(Text("Valid from")), Th(Text("Status")))),
				TBody(Group(tableRows)),
			),
		)
	}

	return appPage("Files", "files",
		quickFilterCard("Filter by file name or version date"),
		tableNode,
	)
}

type versionRowData struct {
	VersionDate string
	Checksum    string
	ValidFrom   string
	ValidTo     string
	Current     bool
}

func fileHistoryPage(fileName string, rows []versionRowData) Node {
	tableRows := make([]Node, 0, len(rows))
	for i := range rows {
		row := rows[i]
		status := Node(statusLabel("superseded", ""))
		if row.Current {
			status = statusLabel("current", "success")
		}
		tableRows = append(tableRows, Tr(
			Td(Text(row.VersionDate)),
			Td(Code(Text(shortChecksum(row.Checksum)))),
			Td(Text(row.ValidFrom)),
			Td(Text(dashIfEmpty(row.ValidTo))),
			Td(status),
		))
	}

	return appPage("History: "+fileName, "files",
		Div(Class(cardClass("table-wrap")),
			Table(Class("data-table"),
				THead(Tr(Th(Text("Version date")), Th(Text("Checksum")), Th(Text("Valid from")), Th(Text("Valid to")), Th(Text("Status")))),
				TBody(Group(tableRows)),
			),
		),
		P(A(Href("/ui/files"), Text("Back to files"))),
	)
}
