package gui

// Label is the text of a button or a prompt.
type Label string

const (
	LabelLoad      Label = "Load PGN"
	LabelAnalyze         = "Load PGN and Analyze"
	LabelAnalyzing       = "Analyzing..."
	LabelStart           = "|<"
	LabelPrevious        = "<"
	LabelNext            = ">"
	LabelEnd             = ">|"
	LabelFlip            = "Flip"
	LabelQuit            = "Quit"
	LabelOK              = "OK"

	LabelEmptyInput  = "Please paste a PGN first."
	LabelInvalidPGN  = "Invalid PGN. Please check the format."
	LabelNoEngine    = "Engine unavailable."
	LabelEvaluating  = "Evaluating..."
	LabelPlaceholder = "Paste a game in PGN format here"
)
