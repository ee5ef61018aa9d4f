package models

import "encoding/json"

// Older payloads and resource files use `specialties` for barbers and
// `title`/`duration` for services. They are folded into the canonical
// fields on decode; the legacy names are never written back.

func (b *Barber) UnmarshalJSON(data []byte) error {
	type alias Barber
	aux := struct {
		*alias
		Specialties []string `json:"specialties"`
	}{alias: (*alias)(b)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(b.ServiceIDs) == 0 && len(aux.Specialties) > 0 {
		b.ServiceIDs = aux.Specialties
	}
	return nil
}

func (s *Service) UnmarshalJSON(data []byte) error {
	type alias Service
	aux := struct {
		*alias
		Title    string `json:"title"`
		Duration int    `json:"duration"`
	}{alias: (*alias)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if s.Name == "" {
		s.Name = aux.Title
	}
	if s.DurationMinutes == 0 {
		s.DurationMinutes = aux.Duration
	}
	return nil
}
