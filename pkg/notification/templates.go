package notification

// Email template names.
const (
	templateWelcome            = "welcome"
	templateInstructorApproved = "instructor_approved"
)

const welcomeTemplate = `
<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Welcome to Academy, {{.Name}}!</h2>
  <p>Your account is ready. Browse the catalog and start learning today.</p>
  {{if .PendingApproval}}
  <p>Your instructor application is under review. We will email you as soon
  as an administrator approves it; until then you can use the platform as a
  student.</p>
  {{end}}
  <p>— The Academy team</p>
</div>
`

const instructorApprovedTemplate = `
<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>You're approved, {{.Name}}!</h2>
  <p>An administrator approved your instructor account. You can now create
  and publish courses.</p>
  <p>— The Academy team</p>
</div>
`
