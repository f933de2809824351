// Package extract pulls raw field text out of the structural units of a source page.
//
// Sources either label their fields ("日時:", "場所:") inside separate fragments, or lay
// them out positionally in a delimited line or table row. The extract package covers both
// shapes and leaves date parsing to the event package.
package extract
