package builder

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/exe-builder/internal/domain/build"
)

// Keys of the RenderScript request struct.
const (
	KeyMainFile        = "main_file"
	KeyAppName         = "app_name"
	KeyVersion         = "version"
	KeyDescription     = "description"
	KeyAuthor          = "author"
	KeyPackages        = "packages"
	KeyExcludePackages = "exclude_packages"
	KeyIncludeFiles    = "include_files"
	KeyIcon            = "icon"
	KeyBase            = "base"
)

// ErrInvalidField is returned when a struct field has the wrong kind.
var ErrInvalidField = errors.New("invalid field")

// ToStruct encodes a build request. Lists are encoded as lists of strings.
func ToStruct(mainFileName string, cfg build.BuildConfig) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		KeyMainFile:        mainFileName,
		KeyAppName:         cfg.AppName,
		KeyVersion:         cfg.Version,
		KeyDescription:     cfg.Description,
		KeyAuthor:          cfg.Author,
		KeyPackages:        lo.ToAnySlice(cfg.Packages),
		KeyExcludePackages: lo.ToAnySlice(cfg.ExcludePackages),
		KeyIncludeFiles:    lo.ToAnySlice(cfg.IncludeFiles),
		KeyIcon:            cfg.Icon,
		KeyBase:            string(cfg.BaseOption),
	})
}

// FromStruct decodes a build request. Absent keys keep the defaults of
// build.DefaultConfig; list keys accept a list of strings or a
// comma-separated string.
func FromStruct(s *structpb.Struct) (string, build.BuildConfig, error) {
	cfg := build.DefaultConfig()
	fields := s.GetFields()

	mainFileName, _, err := stringField(fields, KeyMainFile)
	if err != nil {
		return "", cfg, err
	}

	setters := []struct {
		key string
		set func(string)
	}{
		{KeyAppName, cfg.SetAppName},
		{KeyVersion, cfg.SetVersion},
		{KeyDescription, cfg.SetDescription},
		{KeyAuthor, cfg.SetAuthor},
		{KeyIcon, cfg.SetIcon},
	}

	for _, setter := range setters {
		value, ok, err := stringField(fields, setter.key)
		if err != nil {
			return "", cfg, err
		}

		if ok {
			setter.set(value)
		}
	}

	lists := []struct {
		key    string
		target *[]string
	}{
		{KeyPackages, &cfg.Packages},
		{KeyExcludePackages, &cfg.ExcludePackages},
		{KeyIncludeFiles, &cfg.IncludeFiles},
	}

	for _, list := range lists {
		values, ok, err := listField(fields, list.key)
		if err != nil {
			return "", cfg, err
		}

		if ok {
			*list.target = values
		}
	}

	base, ok, err := stringField(fields, KeyBase)
	if err != nil {
		return "", cfg, err
	}

	if ok {
		if err = cfg.SetBaseOption(base); err != nil {
			return "", cfg, err
		}
	}

	return mainFileName, cfg, nil
}

func stringField(fields map[string]*structpb.Value, key string) (string, bool, error) {
	value, ok := fields[key]
	if !ok {
		return "", false, nil
	}

	switch kind := value.GetKind().(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue, true, nil
	case *structpb.Value_NullValue:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("%w: %s must be a string", ErrInvalidField, key)
	}
}

func listField(fields map[string]*structpb.Value, key string) ([]string, bool, error) {
	value, ok := fields[key]
	if !ok {
		return nil, false, nil
	}

	switch kind := value.GetKind().(type) {
	case *structpb.Value_StringValue:
		return build.SplitList(kind.StringValue), true, nil
	case *structpb.Value_NullValue:
		return nil, false, nil
	case *structpb.Value_ListValue:
		items := make([]string, 0, len(kind.ListValue.GetValues()))

		for i, item := range kind.ListValue.GetValues() {
			s, isString := item.GetKind().(*structpb.Value_StringValue)
			if !isString {
				return nil, false, fmt.Errorf("%w: %s[%d] must be a string", ErrInvalidField, key, i)
			}

			items = append(items, s.StringValue)
		}

		return items, true, nil
	default:
		return nil, false, fmt.Errorf("%w: %s must be a list of strings", ErrInvalidField, key)
	}
}
