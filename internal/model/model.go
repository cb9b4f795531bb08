package model

// Major heads accepted for a document.
const (
	MajorHeadPersonal     = "Personal"
	MajorHeadProfessional = "Professional"
	MajorHeadCompany      = "Company"
)

// Head is a major head together with the minor heads suggested for it.
type Head struct {
	Name       string   `json:"name"`
	MinorHeads []string `json:"minor_heads"`
}

// Heads is the classification vocabulary offered to clients. Minor heads
// outside these lists are still accepted on upload.
var Heads = []Head{
	{Name: MajorHeadPersonal, MinorHeads: []string{"John", "Tom", "Emily"}},
	{Name: MajorHeadProfessional, MinorHeads: []string{"Accounts", "HR", "IT", "Finance"}},
	{Name: MajorHeadCompany, MinorHeads: []string{"Operations", "Legal", "Admin"}},
}

// FindHead returns the vocabulary entry for a major head.
func FindHead(name string) (Head, bool) {
	for _, h := range Heads {
		if h.Name == name {
			return h, true
		}
	}
	return Head{}, false
}
