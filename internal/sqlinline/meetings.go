// Package sqlinline holds the raw SQL used by the voting store. Each query
// starts with a `--sql <uuid>` marker line so slow or failing statements can
// be correlated in logs.
//
// Expected schema:
//
//	meetings(id uuid pk, slug text unique, name text, date text,
//	         club_name text, created_by text, roles jsonb,
//	         is_active boolean, created_at timestamptz, updated_at timestamptz)
//	votes(id uuid pk, meeting_id uuid fk, role_id text, nominee jsonb,
//	      voter_email text, voter_name text, voter_locale text,
//	      voter_country text, created_at timestamptz,
//	      unique(meeting_id, role_id, voter_email))
package sqlinline

const QInsertMeeting = `--sql 3f8b2a6e-91c4-4f07-b2d3-5a7e8c1d9f40
insert into meetings(id, slug, name, date, club_name, created_by, roles, is_active, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, $3::text, $4::text, $5::text, $6::jsonb, true, now(), now())
returning id, created_at, updated_at;
`

const QSelectMeetingBySlug = `--sql 7c1d4e92-6b3a-49f8-8e05-2d9f6a4b8c17
select id, slug, name, date, club_name, created_by, roles, is_active, created_at, updated_at
from meetings
where slug = $1::text
limit 1;
`

const QListMeetings = `--sql a94f7d21-3e86-4b50-9c12-f08b5d6e3a72
select id, slug, name, date, club_name, created_by, roles, is_active, created_at, updated_at
from meetings
order by created_at desc
limit $1::int;
`

const QUpdateMeeting = `--sql e27c9b15-48da-4f63-a801-6b3d2f5c7e94
update meetings
set is_active = coalesce($2::boolean, is_active),
    roles = coalesce($3::jsonb, roles),
    updated_at = now()
where slug = $1::text
returning id, slug, name, date, club_name, created_by, roles, is_active, created_at, updated_at;
`
