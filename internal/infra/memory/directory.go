package memory

import "context"

// StaticDirectory reports fixed counts for the CRUD-owned collections.
type StaticDirectory struct {
	Users    int
	Notes    int
	Lectures int
}

func (d StaticDirectory) CountUsers(context.Context) (int, error)    { return d.Users, nil }
func (d StaticDirectory) CountNotes(context.Context) (int, error)    { return d.Notes, nil }
func (d StaticDirectory) CountLectures(context.Context) (int, error) { return d.Lectures, nil }
