// Package catalog assembles the browsable dataset handed to the page
// renderer: annotated keys with their metadata, the category tree, the tag
// list, DOM id mappings and search terms.
package catalog
