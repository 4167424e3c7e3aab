package core

// Settings is the flat set of cleaning toggles for one run. It is passed by
// value so a run can never observe a change made mid-flight.
type Settings struct {
	Capitalize    bool `json:"capitalize" yaml:"capitalize"`
	Punctuation   bool `json:"punctuation" yaml:"punctuation"`
	Spaces        bool `json:"spaces" yaml:"spaces"`
	Phone         bool `json:"phone" yaml:"phone"`
	Dates         bool `json:"dates" yaml:"dates"`
	Emails        bool `json:"emails" yaml:"emails"`
	EmptyRows     bool `json:"empty" yaml:"empty"`
	EmptyColumns  bool `json:"emptyCols" yaml:"emptyCols"`
	Dedupe        bool `json:"dupes" yaml:"dupes"`
	MarkInvalid   bool `json:"markInvalid" yaml:"markInvalid"`
	PreserveNames bool `json:"preserveNames" yaml:"preserveNames"`
	StrictDates   bool `json:"strictDates" yaml:"strictDates"`
	Anonymize     bool `json:"anonymize" yaml:"anonymize"`
}

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ExportSettings controls how cleaned grids are written. Column pruning
// consults PreserveOriginalStructure.
type ExportSettings struct {
	Format                    string `json:"format" yaml:"format"`
	FileNamePrefix            string `json:"fileNamePrefix" yaml:"fileNamePrefix"`
	CompressOutput            bool   `json:"compressOutput" yaml:"compressOutput"`
	PreserveOriginalStructure bool   `json:"preserveOriginalStructure" yaml:"preserveOriginalStructure"`
}

// DefaultExportSettings returns the export preferences used when none are stored.
func DefaultExportSettings() ExportSettings {
	return ExportSettings{
		Format:                    FormatXLSX,
		FileNamePrefix:            "cleaned_",
		CompressOutput:            false,
		PreserveOriginalStructure: true,
	}
}

// ValidFormat reports whether f names a supported export format.
func ValidFormat(f string) bool {
	switch f {
	case FormatXLSX, FormatCSV, FormatJSON:
		return true
	}
	return false
}

// Configuration is a named, saved pair of cleaning and export settings.
type Configuration struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Timestamp      string         `json:"timestamp"`
	Settings       Settings       `json:"settings"`
	ExportSettings ExportSettings `json:"exportSettings"`
}
