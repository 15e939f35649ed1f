package kernel

import "github.com/google/uuid"

type UserID string

func NewUserID() UserID           { return UserID(uuid.NewString()) }
func UserIDFrom(id string) UserID { return UserID(id) }
func (u UserID) String() string   { return string(u) }
func (u UserID) IsEmpty() bool    { return string(u) == "" }

type CourseID string

func NewCourseID() CourseID           { return CourseID(uuid.NewString()) }
func CourseIDFrom(id string) CourseID { return CourseID(id) }
func (c CourseID) String() string     { return string(c) }
func (c CourseID) IsEmpty() bool      { return string(c) == "" }

type SessionID string

func NewSessionID() SessionID           { return SessionID(uuid.NewString()) }
func SessionIDFrom(id string) SessionID { return SessionID(id) }
func (s SessionID) String() string      { return string(s) }
func (s SessionID) IsEmpty() bool       { return string(s) == "" }
