package contact

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hivoco/flipbook-api/pkg/models"
)

// Directory resolves the contact card shown alongside a brochure.
type Directory interface {
	Lookup(personName string) models.Contact
}

// StaticDirectory is an immutable, case-insensitive name -> contact table.
type StaticDirectory struct {
	byName   map[string]models.Contact
	fallback models.Contact
}

var defaultContact = models.Contact{
	Name:    "Sales Team",
	Email:   "sales@example.com",
	Website: "https://example.com",
}

func NewStaticDirectory(contacts []models.Contact, fallback models.Contact) *StaticDirectory {
	if fallback.Name == "" {
		fallback = defaultContact
	}
	byName := make(map[string]models.Contact, len(contacts))
	for _, c := range contacts {
		key := normalize(c.Name)
		if key == "" {
			continue
		}
		byName[key] = c
	}
	return &StaticDirectory{byName: byName, fallback: fallback}
}

// Default returns a directory that always answers with the built-in contact.
func Default() *StaticDirectory {
	return NewStaticDirectory(nil, defaultContact)
}

type fileFormat struct {
	Default  models.Contact   `yaml:"default"`
	Contacts []models.Contact `yaml:"contacts"`
}

// LoadFile reads a YAML file of the form:
//
//	default: {name: ..., phone: ..., email: ..., website: ...}
//	contacts:
//	  - {name: ..., phone: ...}
func LoadFile(path string) (*StaticDirectory, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contacts file: %w", err)
	}
	var f fileFormat
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse contacts file: %w", err)
	}
	return NewStaticDirectory(f.Contacts, f.Default), nil
}

func (d *StaticDirectory) Lookup(personName string) models.Contact {
	if c, ok := d.byName[normalize(personName)]; ok {
		return c
	}
	return d.fallback
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
