// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package imapadapter

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"

	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/adapter"
	"github.com/ElysionLhant/OSEM-Outlook-Smart-Event-Manager/internal/model"
)

// handleFromBuffer converts one fetched message into a Handle, parsing
// its MIME body for the text/HTML parts and attachment metadata, and
// its headers for References/In-Reply-To threading ids.
func handleFromBuffer(folder string, buf *imapclient.FetchMessageBuffer) adapter.Handle {
	h := adapter.Handle{
		EntryID: strconv.FormatUint(uint64(buf.UID), 10),
		StoreID: folder,
	}

	if buf.Envelope != nil {
		h.InternetMessageID = strings.Trim(buf.Envelope.MessageID, "<>")
		h.ConversationID = h.InternetMessageID
		h.Subject = buf.Envelope.Subject
		h.ReceivedOn = buf.Envelope.Date

		if len(buf.Envelope.From) > 0 {
			h.Sender = buf.Envelope.From[0].Addr()
		}
		var to []string
		for _, addr := range buf.Envelope.To {
			to = append(to, addr.Addr())
		}
		h.To = strings.Join(to, "; ")

		h.Participants = append([]string(nil), to...)
		if h.Sender != "" {
			h.Participants = append([]string{h.Sender}, h.Participants...)
		}
	}

	raw := buf.FindBodySection(bodySectionSpec)
	if raw == nil {
		return h
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		h.BodyText = string(raw)
		return h
	}
	defer mr.Close()

	if ref := mr.Header.Get("References"); ref != "" {
		h.ReferenceIDs = append(h.ReferenceIDs, strings.Fields(ref)...)
	}
	if inReplyTo := mr.Header.Get("In-Reply-To"); inReplyTo != "" {
		h.ReferenceIDs = append(h.ReferenceIDs, strings.Fields(inReplyTo)...)
	}
	if len(h.ReferenceIDs) > 0 {
		h.ConversationID = strings.Trim(h.ReferenceIDs[0], "<>")
	}

	var attachments []model.Attachment
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch ph := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := ph.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				h.BodyText = string(body)
			case strings.HasPrefix(contentType, "text/html"):
				h.BodyHTML = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := ph.Filename()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			attachments = append(attachments, model.Attachment{
				ID:                model.BuildAttachmentID(h.EntryID, len(attachments), filename),
				Filename:          filename,
				Extension:         strings.TrimPrefix(extOf(filename), "."),
				SizeBytes:         int64(len(body)),
				SourceMailEntryID: h.EntryID,
			})
		}
	}
	h.Attachments = attachments

	return h
}

func extOf(filename string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		return filename[i:]
	}
	return ""
}
