package conversation

// Field is an editable part of an event.
type Field string

const (
	FieldName   Field = "name"
	FieldLink   Field = "link"
	FieldStages Field = "stages"
)

// Choice is a discrete inbound selection (an inline button press).
type Choice interface {
	isChoice()
}

type Cancel struct{}

type PickForDelete struct{ EventID int64 }

type ConfirmDelete struct{ EventID int64 }

type PickForEdit struct{ EventID int64 }

type EditField struct{ Field Field }

func (Cancel) isChoice()        {}
func (PickForDelete) isChoice() {}
func (ConfirmDelete) isChoice() {}
func (PickForEdit) isChoice()   {}
func (EditField) isChoice()     {}
