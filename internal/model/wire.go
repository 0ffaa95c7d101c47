package model

import (
	"fmt"
	"time"
)

// DateLayout формат даты в запросах на создание/изменение
const DateLayout = "2006-01-02"

// DefaultDuration длительность приёма, если сервер не прислал endTime (один слот)
const DefaultDuration = 30 * time.Minute

// AppointmentRecord запись приёма в ответах API
type AppointmentRecord struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	AppointmentDate string   `json:"appointmentDate"`
	EndTime         string   `json:"endTime,omitempty"`
	PatientID       string   `json:"patientId"`
	ResourceID      string   `json:"resourceId"`
	Status          Status   `json:"status"`
	Cost            *float64 `json:"cost,omitempty"`
	Description     string   `json:"description,omitempty"`
	Comments        string   `json:"comments,omitempty"`
	Treatment       string   `json:"treatment,omitempty"`
	Files           []string `json:"files"`
}

// ToAppointment переводит запись API в модель, время приводится к loc
func (r AppointmentRecord) ToAppointment(loc *time.Location) (*Appointment, error) {
	if loc == nil {
		loc = time.UTC
	}

	start, err := time.Parse(time.RFC3339Nano, r.AppointmentDate)
	if err != nil {
		return nil, fmt.Errorf("parse appointmentDate of %s: %w", r.ID, err)
	}

	end := start.Add(DefaultDuration)
	if r.EndTime != "" {
		end, err = time.Parse(time.RFC3339Nano, r.EndTime)
		if err != nil {
			return nil, fmt.Errorf("parse endTime of %s: %w", r.ID, err)
		}
	}

	files := r.Files
	if files == nil {
		files = []string{}
	}

	return &Appointment{
		ID:          r.ID,
		ResourceID:  r.ResourceID,
		PatientID:   r.PatientID,
		Title:       r.Title,
		Description: r.Description,
		Comments:    r.Comments,
		Start:       start.In(loc),
		End:         end.In(loc),
		Cost:        r.Cost,
		Treatment:   r.Treatment,
		Status:      r.Status,
		Files:       files,
	}, nil
}

// RecordFromAppointment обратное преобразование, используется локальным хранилищем и тестами
func RecordFromAppointment(a *Appointment) AppointmentRecord {
	return AppointmentRecord{
		ID:              a.ID,
		Title:           a.Title,
		AppointmentDate: a.Start.Format(time.RFC3339Nano),
		EndTime:         a.End.Format(time.RFC3339Nano),
		PatientID:       a.PatientID,
		ResourceID:      a.ResourceID,
		Status:          a.Status,
		Cost:            a.Cost,
		Description:     a.Description,
		Comments:        a.Comments,
		Treatment:       a.Treatment,
		Files:           a.Files,
	}
}

// AppointmentPayload тело запроса на создание или изменение приёма
type AppointmentPayload struct {
	PatientID   string   `json:"patientId"`
	ResourceID  string   `json:"resourceId"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Comments    string   `json:"comments,omitempty"`
	Date        string   `json:"date"`      // YYYY-MM-DD
	StartTime   string   `json:"startTime"` // метка слота, "1:30 PM"
	EndTime     string   `json:"endTime"`
	Cost        *float64 `json:"cost,omitempty"`
	Treatment   string   `json:"treatment,omitempty"`
	Status      Status   `json:"status"`
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// PageQuery параметры постраничного запроса, страницы с 1
type PageQuery struct {
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	Search     string    `json:"search,omitempty"`
	Sort       string    `json:"sort,omitempty"`
	Order      SortOrder `json:"order,omitempty"`
	Status     Status    `json:"status,omitempty"`
	ResourceID string    `json:"resourceId,omitempty"`
}

// PageResult ответ постраничного запроса
type PageResult struct {
	Items              []*Appointment `json:"items"`
	TotalCount         int            `json:"totalCount"`
	FilteredTotalCount int            `json:"filteredTotalCount"`
	StatusCounts       map[Status]int `json:"statusCounts"`
}

// PageRecords ответ API до преобразования записей
type PageRecords struct {
	Items              []AppointmentRecord `json:"items"`
	TotalCount         int                 `json:"totalCount"`
	FilteredTotalCount int                 `json:"filteredTotalCount"`
	StatusCounts       map[Status]int      `json:"statusCounts"`
}
