package services

import (
	"context"
	"strings"

	"meishi-backend/domain/card"
)

// csvTimeLayout matches the ja-JP locale date-time rendering the dashboard
// always exported with (no zero padding on month and day).
const csvTimeLayout = "2006/1/2 15:04:05"

// csvHeaders is the fixed header row, one label per exported column
var csvHeaders = []string{
	"会社名",
	"氏名",
	"部署",
	"役職",
	"メールアドレス",
	"電話番号",
	"住所",
	"Webサイト",
	"ステータス",
	"登録日時",
	"更新日時",
}

// statusLabel renders the localized status label
func statusLabel(s card.Status) string {
	if s == card.StatusVerified {
		return "確認済み"
	}
	return "未確認"
}

// ExportCSV serializes every record as a CSV table: one header row, then one
// row per record in createdAt-descending order. Every value is wrapped in
// double quotes with internal quotes doubled, so the output is byte-for-byte
// reproducible for a given record set.
func (s *CardService) ExportCSV(ctx context.Context) (string, error) {
	cards, err := s.repo.All(ctx)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(cards)+1)
	lines = append(lines, strings.Join(csvHeaders, ","))

	for _, c := range cards {
		f := c.Fields()
		row := []string{
			f.CompanyName,
			f.PersonName,
			f.Department,
			f.Position,
			f.Email,
			f.Phone,
			f.Address,
			f.Website,
			statusLabel(c.Status()),
			c.CreatedAt().Format(csvTimeLayout),
			c.UpdatedAt().Format(csvTimeLayout),
		}
		quoted := make([]string, len(row))
		for i, cell := range row {
			quoted[i] = `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
		}
		lines = append(lines, strings.Join(quoted, ","))
	}

	return strings.Join(lines, "\n"), nil
}
