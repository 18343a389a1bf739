package persistence

import (
	"os"

	"gopkg.in/yaml.v3"
)

func Save(sessionFile string, session *Session) error {
	data, err := yaml.Marshal(session)
	if err != nil {
		return err
	}
	if err = os.WriteFile(sessionFile, data, 0640); err != nil {
		return err
	}
	return nil
}

func Resume(sessionFile string) (*Session, error) {
	_, err := os.Stat(sessionFile)
	if os.IsNotExist(err) {
		return &Session{}, nil
	}
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(sessionFile)
	if err != nil {
		return nil, err
	}

	var session Session
	if err = yaml.Unmarshal(data, &session); err != nil {
		return nil, err
	}

	return &session, nil
}
