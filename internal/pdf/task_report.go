package pdf

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/taihuy1/task-managemet-thesis/internal/models"
)

// ReportGenerator renders an author's task overview as a PDF.
type ReportGenerator struct{}

func NewReportGenerator() *ReportGenerator {
	return &ReportGenerator{}
}

// TaskReport writes a tabular listing of the author's tasks with status,
// solver and creation date.
func (g *ReportGenerator) TaskReport(w io.Writer, authorName string, tasks []models.Task, solverNames map[int64]string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Task report", false)
	pdf.SetAuthor(authorName, false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "Task report", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	sub := fmt.Sprintf("%s  -  %s", authorName, time.Now().Format("2006-01-02 15:04"))
	pdf.CellFormat(0, 7, sub, "", 1, "C", false, 0, "")
	g.hr(pdf)
	pdf.Ln(3)

	// table header
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(70, 7, "Title", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, "Status", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, "Solver", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, "Created", "1", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, t := range tasks {
		solver := solverNames[t.SolverID]
		if solver == "" {
			solver = fmt.Sprintf("#%d", t.SolverID)
		}
		pdf.CellFormat(70, 7, truncate(t.Title, 40), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, string(t.Status), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, truncate(solver, 24), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, t.CreatedAt.Format("2006-01-02"), "1", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("%d task(s) total", len(tasks)), "", 1, "L", false, 0, "")

	return pdf.Output(w)
}

func (g *ReportGenerator) hr(pdf *gofpdf.Fpdf) {
	x, y := pdf.GetXY()
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	pdf.SetDrawColor(120, 120, 120)
	pdf.Line(left, y, pageW-right, y)
	pdf.SetXY(x, y+2)
}

// truncate shortens s to at most n runes. Counting runes, not bytes, so a
// multi-byte title is never cut mid-character.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
