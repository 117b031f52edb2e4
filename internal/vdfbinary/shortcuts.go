package vdfbinary

import (
	"fmt"
	"io"
	"strconv"
)

// Shortcut is one non-Steam game entry from a user's shortcuts.vdf.
type Shortcut struct {
	AppName  string
	Exe      string
	Icon     string
	StartDir string
	Tags     []string
	AppID    uint32
	IsHidden bool
}

// ParseShortcuts decodes Steam's binary shortcuts.vdf. Icon, IsHidden and
// Tags are optional because entries written by third-party tools such as
// EmuDeck and Lutris omit them.
func ParseShortcuts(r io.Reader) ([]Shortcut, error) {
	root, err := Parse(r)
	if err != nil {
		return nil, err
	}

	list, ok := root.GetMap("shortcuts")
	if !ok {
		return nil, fmt.Errorf("no 'shortcuts' map in vdf")
	}

	shortcuts := make([]Shortcut, 0, len(list))
	for i := range len(list) {
		entry, ok := list[strconv.Itoa(i)]
		if !ok {
			return nil, fmt.Errorf("shortcut index %d missing from vdf", i)
		}

		shortcut, err := decodeShortcut(entry)
		if err != nil {
			return nil, err
		}
		shortcuts = append(shortcuts, shortcut)
	}
	return shortcuts, nil
}

func decodeShortcut(entry VdfValue) (Shortcut, error) {
	appID, ok := entry.GetUint("appid")
	if !ok {
		return Shortcut{}, fmt.Errorf("shortcut entry has no 'appid'")
	}
	appName, ok := entry.GetString("AppName")
	if !ok {
		return Shortcut{}, fmt.Errorf("shortcut entry has no 'AppName'")
	}
	exe, ok := entry.GetString("Exe")
	if !ok {
		return Shortcut{}, fmt.Errorf("shortcut entry has no 'Exe'")
	}
	startDir, ok := entry.GetString("StartDir")
	if !ok {
		return Shortcut{}, fmt.Errorf("shortcut entry has no 'StartDir'")
	}

	icon, _ := entry.GetString("icon")
	isHidden, _ := entry.GetBool("IsHidden")

	var tags []string
	if tagsMap, ok := entry.GetMap("tags"); ok {
		for j := range len(tagsMap) {
			tag, ok := tagsMap[strconv.Itoa(j)]
			if !ok {
				break
			}
			if value, ok := tag.AsString(); ok {
				tags = append(tags, value)
			}
		}
	}

	return Shortcut{
		AppID:    appID,
		AppName:  appName,
		Exe:      exe,
		Icon:     icon,
		IsHidden: isHidden,
		StartDir: startDir,
		Tags:     tags,
	}, nil
}
