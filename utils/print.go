// Copyright 2024 Fantom Foundation
// This file is part of Fiber, an exact test toolkit for contingency tables
//
// Fiber is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Fiber is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Fiber. If not, see <http://www.gnu.org/licenses/>.

package utils

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// Printer emits one snapshot of a report to its destination.
type Printer interface {
	Print() error
	Close() error
}

// Printers fans a report out to several destinations.
type Printers struct {
	printers []Printer
}

func NewPrinters() *Printers {
	return &Printers{[]Printer{}}
}

func (ps *Printers) Print() error {
	var errs []error
	for _, p := range ps.printers {
		errs = append(errs, p.Print())
	}
	return errors.Join(errs...)
}

func (ps *Printers) Close() error {
	var errs []error
	for _, p := range ps.printers {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}

func (ps *Printers) Len() int {
	return len(ps.printers)
}

func (ps *Printers) AddPrinter(p Printer) *Printers {
	ps.printers = append(ps.printers, p)
	return ps
}

type PrintToWriter struct {
	w io.Writer
	f func() string
}

func NewPrintToWriter(w io.Writer, f func() string) *PrintToWriter {
	return &PrintToWriter{w, f}
}

func (p *PrintToWriter) Print() error {
	_, err := fmt.Fprintln(p.w, p.f())
	return err
}

func (p *PrintToWriter) Close() error {
	return nil
}

func (ps *Printers) AddPrintToWriter(w io.Writer, f func() string) *Printers {
	return ps.AddPrinter(NewPrintToWriter(w, f))
}

// PrintToFile writes snapshots to a file. The first snapshot replaces any
// previous content of the file, later ones are appended.
type PrintToFile struct {
	filepath string
	f        func() string
	started  bool
}

func NewPrintToFile(filepath string, f func() string) *PrintToFile {
	return &PrintToFile{filepath: filepath, f: f}
}

func (p *PrintToFile) Print() error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if !p.started {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	file, err := os.OpenFile(p.filepath, flags, 0644)
	if err != nil {
		return fmt.Errorf("unable to print to file %s; %w", p.filepath, err)
	}
	p.started = true
	_, err = file.WriteString(p.f())
	return errors.Join(err, file.Close())
}

func (p *PrintToFile) Close() error {
	return nil
}

func (ps *Printers) AddPrintToFile(filepath string, f func() string) *Printers {
	if filepath != "" {
		ps.AddPrinter(NewPrintToFile(filepath, f))
	}
	return ps
}

// PrintToDb inserts the rows produced by f in a single transaction.
type PrintToDb struct {
	db     *sql.DB
	insert string
	f      func() [][]any
}

// NewPrintToSqlite3 opens the sqlite3 database conn and runs the create
// statement before any row is inserted.
func NewPrintToSqlite3(conn string, create string, insert string, f func() [][]any) (*PrintToDb, error) {
	db, err := sql.Open("sqlite3", conn)
	if err != nil {
		return nil, fmt.Errorf("unable to open connection to sqlite3 %s; %w", conn, err)
	}

	if _, err = db.Exec(create); err != nil {
		return nil, errors.Join(fmt.Errorf("unable to create table; %w", err), db.Close())
	}

	// the registry is written once per chain, durability is not a concern
	if _, err = db.Exec("PRAGMA synchronous = OFF"); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	if _, err = db.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		return nil, errors.Join(err, db.Close())
	}

	return &PrintToDb{db, insert, f}, nil
}

func (p *PrintToDb) Print() error {
	values := p.f()
	if len(values) == 0 {
		return nil
	}

	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("unable to begin transaction; %w", err)
	}

	stmt, err := tx.Prepare(p.insert)
	if err != nil {
		return errors.Join(fmt.Errorf("unable to prepare statement %s; %w", p.insert, err), tx.Rollback())
	}
	defer stmt.Close()

	for _, value := range values {
		if _, err = stmt.Exec(value...); err != nil {
			return errors.Join(err, tx.Rollback())
		}
	}
	return tx.Commit()
}

func (p *PrintToDb) Close() error {
	return p.db.Close()
}

func (ps *Printers) AddPrintToSqlite3(conn string, create string, insert string, f func() [][]any) (*Printers, error) {
	if conn == "" {
		return ps, nil
	}
	p, err := NewPrintToSqlite3(conn, create, insert, f)
	if err != nil {
		return ps, err
	}
	return ps.AddPrinter(p), nil
}
