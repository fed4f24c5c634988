package config

// LoggingConfig selects the logrus level, formatter and sink
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
	Output string `mapstructure:"output" validate:"required,oneof=stdout stderr file"`

	// only read when Output is "file"
	FilePath string `mapstructure:"file_path" validate:"required_if=Output file"`
}
